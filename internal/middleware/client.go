package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/vitaup/VitaUpBack/pkg/utils"
)

const (
	ClientCookieName = "vitaup_client"
	clientIDKey      = "client_id"
	clientCookieAge  = 365 * 24 * time.Hour
)

type ClientIdentityConfig struct {
	Secret string
	Secure bool
	Now    func() time.Time
}

// ClientIdentity resolves the browser client id from the signed client
// cookie and issues a fresh id when the cookie is missing or invalid.
func ClientIdentity(cfg ClientIdentityConfig) fiber.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return func(c *fiber.Ctx) error {
		if raw := c.Cookies(ClientCookieName); raw != "" {
			claims, err := utils.ValidateToken(raw, cfg.Secret, utils.TokenKindClient)
			if err == nil && claims.Subject != "" {
				c.Locals(clientIDKey, claims.Subject)
				return c.Next()
			}
		}

		clientID := uuid.NewString()
		now := cfg.Now()
		claims := utils.Claims{Kind: utils.TokenKindClient}
		claims.Subject = clientID
		token, err := utils.GenerateToken(claims, cfg.Secret, now, 0)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to issue client identity",
			})
		}
		c.Cookie(&fiber.Cookie{
			Name:     ClientCookieName,
			Value:    token,
			Path:     "/",
			Expires:  now.Add(clientCookieAge),
			HTTPOnly: true,
			Secure:   cfg.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		c.Locals(clientIDKey, clientID)
		return c.Next()
	}
}

// ClientID returns the id set by ClientIdentity, or "" outside it.
func ClientID(c *fiber.Ctx) string {
	id, _ := c.Locals(clientIDKey).(string)
	return id
}
