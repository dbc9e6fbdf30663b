package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vitaup/VitaUpBack/internal/middleware"
	"github.com/vitaup/VitaUpBack/internal/models"
	"github.com/vitaup/VitaUpBack/internal/services"
	"go.uber.org/zap"
)

// HomeHandler serves the dashboard, the coach chat copy and the plans page.
type HomeHandler struct {
	dashboard *services.DashboardService
	coach     *services.CoachService
	plans     *services.PlanCatalog
	logger    *zap.Logger
}

func NewHomeHandler(dashboard *services.DashboardService, coach *services.CoachService, plans *services.PlanCatalog, logger *zap.Logger) *HomeHandler {
	return &HomeHandler{
		dashboard: dashboard,
		coach:     coach,
		plans:     plans,
		logger:    logger.Named("home_handler"),
	}
}

func (h *HomeHandler) Dashboard(c *fiber.Ctx) error {
	client := middleware.SessionClient(c)
	state := client.Manager.State()
	dashboard, err := h.dashboard.Build(c.UserContext(), client.Store, state.UserID(), state.Profile, state.Gamification)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(dashboard)
}

func (h *HomeHandler) CoachMessages(c *fiber.Ctx) error {
	state := middleware.SessionClient(c).Manager.State()
	return c.JSON(fiber.Map{
		"messages": h.coach.Messages(state.Profile),
		"mission":  h.coach.DailyMission(),
	})
}

// Plans is public; a signed-in caller also gets its current tier.
func (h *HomeHandler) Plans(c *fiber.Ctx) error {
	current := ""
	if client := middleware.SessionClient(c); client != nil {
		state := client.Manager.State()
		if state.Authenticated() {
			current = models.PlanFree
			if state.Profile != nil && state.Profile.PlanType != "" {
				current = state.Profile.PlanType
			}
		}
	}
	body := fiber.Map{"plans": h.plans.List()}
	if current != "" {
		body["current_plan"] = current
	}
	return c.JSON(body)
}
