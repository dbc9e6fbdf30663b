package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vitaup/VitaUpBack/internal/services"
	"github.com/vitaup/VitaUpBack/internal/session"
	"github.com/vitaup/VitaUpBack/internal/store"
	"go.uber.org/zap"
)

// statusFor maps service and session errors to an HTTP status and the
// message shown to the browser.
func statusFor(err error) (int, string) {
	var validationErr *services.ValidationError
	var authErr *session.AuthError
	var updateErr *session.ProfileUpdateError

	switch {
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest, validationErr.Message
	case errors.As(err, &authErr):
		switch {
		case errors.Is(err, store.ErrUserExists):
			return fiber.StatusConflict, "Email already registered"
		case errors.Is(err, store.ErrWeakPassword):
			return fiber.StatusUnprocessableEntity, remoteMessage(err, "Password is too weak")
		case errors.Is(err, store.ErrInvalidCredentials):
			return fiber.StatusUnauthorized, "Invalid email or password"
		default:
			return fiber.StatusUnauthorized, remoteMessage(err, "Authentication failed")
		}
	case errors.As(err, &updateErr):
		return fiber.StatusBadGateway, "Failed to update profile"
	case errors.Is(err, session.ErrClosed):
		return fiber.StatusServiceUnavailable, "Server is shutting down"
	case errors.Is(err, store.ErrNotAuthenticated), errors.Is(err, store.ErrSessionExpired):
		return fiber.StatusUnauthorized, "Not authenticated"
	case errors.Is(err, store.ErrPermissionDenied):
		return fiber.StatusForbidden, "Forbidden"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "Request timed out"
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

func remoteMessage(err error, fallback string) string {
	var apiErr *store.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status, message := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error("request_failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// ErrorHandler renders errors that escape the handlers as JSON.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}
		return respondError(c, logger, err)
	}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
}
