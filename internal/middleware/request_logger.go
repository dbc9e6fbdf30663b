package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vitaup/VitaUpBack/internal/metrics"
	"go.uber.org/zap"
)

func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		if err != nil {
			// Let the app's error handler pick the status before it is recorded.
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		path := c.Route().Path
		if path == "" || path == "/" {
			path = c.Path()
		}
		status := c.Response().StatusCode()
		duration := time.Since(start).Seconds()

		metrics.RequestCount.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		metrics.RequestDuration.WithLabelValues(c.Method(), path).Observe(duration)

		logger.Info("http_request",
			zap.String("method", c.Method()),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Float64("duration", duration),
			zap.String("client_ip", c.IP()),
		)
		return nil
	}
}
