package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vitaup/VitaUpBack/internal/middleware"
	"github.com/vitaup/VitaUpBack/internal/services"
	"go.uber.org/zap"
)

// LogHandler serves the nutrition, workout and sleep screens. Rows are
// read and written through the caller's own store client.
type LogHandler struct {
	logs   *services.LogService
	logger *zap.Logger
}

func NewLogHandler(logs *services.LogService, logger *zap.Logger) *LogHandler {
	return &LogHandler{logs: logs, logger: logger.Named("log_handler")}
}

func (h *LogHandler) ListNutrition(c *fiber.Ctx) error {
	client := middleware.SessionClient(c)
	summary, err := h.logs.NutritionDay(c.UserContext(), client.Store, client.Manager.State().UserID(), c.Query("date"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(summary)
}

func (h *LogHandler) AddNutrition(c *fiber.Ctx) error {
	var req services.NutritionInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	client := middleware.SessionClient(c)
	entry, err := h.logs.AddNutrition(c.UserContext(), client.Store, client.Manager.State().UserID(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entry": entry})
}

func (h *LogHandler) ListWorkouts(c *fiber.Ctx) error {
	client := middleware.SessionClient(c)
	summary, err := h.logs.WorkoutDay(c.UserContext(), client.Store, client.Manager.State().UserID(), c.Query("date"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(summary)
}

func (h *LogHandler) AddWorkout(c *fiber.Ctx) error {
	var req services.WorkoutInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	client := middleware.SessionClient(c)
	entry, err := h.logs.AddWorkout(c.UserContext(), client.Store, client.Manager.State().UserID(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entry": entry})
}

func (h *LogHandler) ListSleep(c *fiber.Ctx) error {
	client := middleware.SessionClient(c)
	summary, err := h.logs.SleepDay(c.UserContext(), client.Store, client.Manager.State().UserID(), c.Query("date"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(summary)
}

func (h *LogHandler) AddSleep(c *fiber.Ctx) error {
	var req services.SleepInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	client := middleware.SessionClient(c)
	entry, err := h.logs.AddSleep(c.UserContext(), client.Store, client.Manager.State().UserID(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entry": entry})
}
