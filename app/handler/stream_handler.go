package handler

import (
	"net/http"
	"time"

	"nodemonitor/app/middleware"
	"nodemonitor/internal/service"
	"nodemonitor/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // browser clients authenticate with ?token=
	},
}

// StreamHandler pushes node status events over WebSocket
type StreamHandler struct {
	hub *service.StatusHub
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(hub *service.StatusHub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

// Stream upgrades to WebSocket and forwards the user's node status events
// @Summary Node status stream
// @Description WebSocket stream of node_status events. Browsers pass the token as ?token=.
// @Tags nodes
// @Param token query string false "Access token"
// @Router /api/nodes/stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	userID := middleware.UserID(c)
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "Failed to upgrade to websocket: %v", err)
		return
	}
	defer ws.Close()

	sub := h.hub.Subscribe(userID)
	defer sub.Close()

	// Reader: handles pongs and detects the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		ws.SetReadLimit(512)
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case event, ok := <-sub.C:
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(event); err != nil {
				logger.WarnCtx(c.Request.Context(), "stream write failed for user %s: %v", userID, err)
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
