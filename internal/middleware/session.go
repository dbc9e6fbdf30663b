package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vitaup/VitaUpBack/internal/session"
)

const SessionClientKey = "session_client"

// ClientSource hands out the session client of a browser client.
type ClientSource interface {
	Get(ctx context.Context, id string) (*session.Client, error)
}

// LoadSession attaches the caller's session client. It must run after
// ClientIdentity.
func LoadSession(source ClientSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := ClientID(c)
		if clientID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing client identity"})
		}
		client, err := source.Get(c.UserContext(), clientID)
		if err != nil {
			if errors.Is(err, session.ErrClosed) {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Server is shutting down"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load session"})
		}
		c.Locals(SessionClientKey, client)
		return c.Next()
	}
}

// RequireAuth rejects requests whose client has no active session.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		client := SessionClient(c)
		if client == nil || !client.Manager.State().Authenticated() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
		}
		return c.Next()
	}
}

func SessionClient(c *fiber.Ctx) *session.Client {
	client, _ := c.Locals(SessionClientKey).(*session.Client)
	return client
}
