package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vitaup/VitaUpBack/internal/middleware"
	"github.com/vitaup/VitaUpBack/internal/models"
	"github.com/vitaup/VitaUpBack/internal/services"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	profiles   *services.ProfileService
	onboarding *services.OnboardingService
	logger     *zap.Logger
}

func NewProfileHandler(profiles *services.ProfileService, onboarding *services.OnboardingService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles:   profiles,
		onboarding: onboarding,
		logger:     logger.Named("profile_handler"),
	}
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	state := middleware.SessionClient(c).Manager.State()
	return c.JSON(fiber.Map{
		"profile":      state.Profile,
		"gamification": services.Card(state.Gamification),
	})
}

// RefreshProfile reloads the cached rows. Load failures keep the previous
// values, so the answer is always the current state.
func (h *ProfileHandler) RefreshProfile(c *fiber.Ctx) error {
	manager := middleware.SessionClient(c).Manager
	if err := manager.RefreshProfile(c.UserContext()); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"state": manager.State()})
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	var patch models.ProfilePatch
	if err := c.BodyParser(&patch); err != nil {
		return invalidBody(c)
	}

	manager := middleware.SessionClient(c).Manager
	if err := h.profiles.UpdateProfile(c.UserContext(), manager, patch); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"state": manager.State()})
}

func (h *ProfileHandler) SubmitOnboarding(c *fiber.Ctx) error {
	var req services.OnboardingInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	manager := middleware.SessionClient(c).Manager
	if err := h.onboarding.Submit(c.UserContext(), manager, req); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"state": manager.State()})
}
