// internal/realtime/handler.go
package realtime

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rodoaet/aet-backend/internal/utils"
)

type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// GET /ws?token=<jwt>
//
// Browsers cannot set an Authorization header on a WebSocket handshake, so
// the token travels as a query parameter and is validated here rather than by
// the auth middleware.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if _, err := utils.ValidateJWT(token); err != nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	sub := h.hub.Subscribe()
	client := newClient(conn, sub)

	go client.writePump()
	go client.readPump()
}
