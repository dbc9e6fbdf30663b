package statews

import (
	"context"
	"encoding/json"

	websocket "github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// ReadPump handles incoming frames until the connection fails. Clients
// may ask for a profile refresh or ping; state arrives on its own.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			c.reply(Message{Type: TypeError, Content: "invalid message payload"})
			continue
		}

		switch incoming.Type {
		case "refresh":
			ctx, cancel := context.WithTimeout(context.Background(), refreshBudget)
			err := c.source.RefreshProfile(ctx)
			cancel()
			if err != nil {
				c.hub.logger.Warn("ws_refresh_failed", zap.String("client_id", c.clientID), zap.Error(err))
				c.reply(Message{Type: TypeError, Content: "failed to refresh profile"})
			}
		case "ping":
			c.reply(Message{Type: TypePong})
		default:
			c.reply(Message{Type: TypeError, Content: "unsupported message type"})
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// reply hands a direct answer to the hub, which owns the send queue.
func (c *Client) reply(message Message) {
	message.Timestamp = c.hub.timestamp()
	payload, err := json.Marshal(message)
	if err != nil {
		return
	}
	select {
	case c.hub.replies <- direct{client: c, payload: payload}:
	case <-c.hub.done:
	}
}
