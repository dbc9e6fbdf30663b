package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vitaup/VitaUpBack/internal/middleware"
	"github.com/vitaup/VitaUpBack/internal/services"
	"github.com/vitaup/VitaUpBack/internal/session"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth   *services.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger.Named("auth_handler")}
}

type provisioningResponse struct {
	Profile      string `json:"profile"`
	Gamification string `json:"gamification"`
	RowsReady    bool   `json:"rows_ready"`
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req services.SignUpInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	client := middleware.SessionClient(c)
	report, err := h.auth.SignUp(c.UserContext(), client.Manager, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !report.RowsReady {
		h.logger.Warn("signup_rows_pending",
			zap.String("client_id", client.ID),
			zap.String("profile", report.Profile.String()),
			zap.String("gamification", report.Gamification.String()),
		)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"state": client.Manager.State(),
		"provisioning": provisioningResponse{
			Profile:      report.Profile.String(),
			Gamification: report.Gamification.String(),
			RowsReady:    report.RowsReady,
		},
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req services.SignInInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	client := middleware.SessionClient(c)
	if err := h.auth.SignIn(c.UserContext(), client.Manager, req); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"state": client.Manager.State()})
}

// Logout always answers with the cleared state. A failed remote sign-out
// is reported as a warning since the local session is gone either way.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	client := middleware.SessionClient(c)
	err := client.Manager.SignOut(c.UserContext())
	body := fiber.Map{"state": client.Manager.State()}
	if err != nil {
		var authErr *session.AuthError
		if !errors.As(err, &authErr) {
			return respondError(c, h.logger, err)
		}
		h.logger.Warn("remote_sign_out_failed", zap.String("client_id", client.ID), zap.Error(err))
		body["warning"] = "Signed out locally; the server session could not be revoked"
	}
	return c.JSON(body)
}

func (h *AuthHandler) State(c *fiber.Ctx) error {
	client := middleware.SessionClient(c)
	return c.JSON(fiber.Map{"state": client.Manager.State()})
}
