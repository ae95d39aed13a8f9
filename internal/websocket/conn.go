package websocket

import (
	"time"

	fws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// Upgrade lets only WebSocket handshakes through to Handler.
func Upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if fws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handler serves GET /ws. The optional ?tournament= query picks one tournament;
// without it the client receives the whole collection.
func (h *Hub) Handler() fiber.Handler {
	return fws.New(func(conn *fws.Conn) {
		client := NewClient(conn.Query("tournament"))
		h.Register(client)
		defer h.Unregister(client)
		h.log.Debug("websocket client connected", zap.String("client", client.ID), zap.String("topic", client.Topic))

		// Clients only listen; reading is how a closed socket is noticed.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					h.Unregister(client)
					return
				}
			}
		}()

		for msg := range client.Send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(fws.TextMessage, msg); err != nil {
				h.log.Debug("websocket write failed", zap.String("client", client.ID), zap.Error(err))
				return
			}
		}
	})
}
