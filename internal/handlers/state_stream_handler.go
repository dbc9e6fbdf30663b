package handlers

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/vitaup/VitaUpBack/internal/middleware"
	"github.com/vitaup/VitaUpBack/internal/session"
	statews "github.com/vitaup/VitaUpBack/internal/websocket"
	"go.uber.org/zap"
)

type StateStreamHandler struct {
	hub    *statews.Hub
	logger *zap.Logger
}

func NewStateStreamHandler(hub *statews.Hub, logger *zap.Logger) *StateStreamHandler {
	return &StateStreamHandler{hub: hub, logger: logger.Named("state_stream")}
}

// Upgrade only lets websocket handshakes through to Stream.
func (h *StateStreamHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "Websocket upgrade required"})
	}
	return c.Next()
}

func (h *StateStreamHandler) Stream(conn *websocket.Conn) {
	client, ok := conn.Locals(middleware.SessionClientKey).(*session.Client)
	if !ok || client == nil {
		_ = conn.Close()
		return
	}

	streamClient := statews.NewClient(h.hub, conn, client.ID, client.Manager)
	if !h.hub.Register(streamClient) {
		_ = conn.Close()
		return
	}
	h.logger.Debug("state_stream_opened", zap.String("client_id", client.ID))

	go streamClient.WritePump()
	streamClient.ReadPump()
}
