package routes

import (
	"errors"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vitaup/VitaUpBack/internal/config"
	"github.com/vitaup/VitaUpBack/internal/handlers"
	"github.com/vitaup/VitaUpBack/internal/middleware"
	"github.com/vitaup/VitaUpBack/internal/services"
	statews "github.com/vitaup/VitaUpBack/internal/websocket"
	"go.uber.org/zap"
)

type Dependencies struct {
	Config  *config.Config
	Clients middleware.ClientSource
	Hub     *statews.Hub
	Logger  *zap.Logger
	Now     func() time.Time
}

func RegisterRoutes(app *fiber.App, deps Dependencies) error {
	if deps.Config == nil || deps.Clients == nil || deps.Hub == nil {
		return errors.New("routes: config, clients and hub are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	logService := services.NewLogService(deps.Now)
	coachService := services.NewCoachService()
	dashboardService := services.NewDashboardService(logService, coachService)

	authHandler := handlers.NewAuthHandler(services.NewAuthService(), logger)
	profileHandler := handlers.NewProfileHandler(services.NewProfileService(), services.NewOnboardingService(), logger)
	logHandler := handlers.NewLogHandler(logService, logger)
	homeHandler := handlers.NewHomeHandler(dashboardService, coachService, services.NewPlanCatalog(), logger)
	streamHandler := handlers.NewStateStreamHandler(deps.Hub, logger)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if err := registerDocsRoutes(app, cfg); err != nil {
		return err
	}

	api := app.Group("/api",
		middleware.ClientIdentity(middleware.ClientIdentityConfig{
			Secret: cfg.ClientCookieSecret,
			Secure: cfg.SecureCookies(),
			Now:    deps.Now,
		}),
		middleware.LoadSession(deps.Clients),
	)
	requireAuth := middleware.RequireAuth()

	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.SignUp)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/state", authHandler.State)

	api.Get("/plans", homeHandler.Plans)

	profile := api.Group("/profile", requireAuth)
	profile.Get("", profileHandler.GetProfile)
	profile.Patch("", profileHandler.UpdateProfile)
	profile.Post("/refresh", profileHandler.RefreshProfile)
	api.Post("/onboarding", requireAuth, profileHandler.SubmitOnboarding)

	logs := api.Group("/logs", requireAuth)
	logs.Get("/nutrition", logHandler.ListNutrition)
	logs.Post("/nutrition", logHandler.AddNutrition)
	logs.Get("/workout", logHandler.ListWorkouts)
	logs.Post("/workout", logHandler.AddWorkout)
	logs.Get("/sleep", logHandler.ListSleep)
	logs.Post("/sleep", logHandler.AddSleep)

	api.Get("/dashboard", requireAuth, homeHandler.Dashboard)
	api.Get("/coach/messages", requireAuth, homeHandler.CoachMessages)

	api.Use("/ws", streamHandler.Upgrade)
	api.Get("/ws/state", websocket.New(streamHandler.Stream))

	return nil
}
