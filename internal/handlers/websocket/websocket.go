// internal/handlers/websocket/websocket.go
package websocket

import (
	"net/http"
	"time"

	"hellofixo-service/internal/middleware"
	"hellofixo-service/internal/pkg/response"
	ws "hellofixo-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler accepts browser connections from origins, or from any origin when origins holds "*".
func NewWebSocketHandler(hub *ws.Hub, origins []string, logger *zap.Logger) *WebSocketHandler {
	allowed := make(map[string]bool, len(origins))
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowAll || allowed[origin]
			},
		},
		logger: logger,
	}
}

// HandleConnection authenticates the token and upgrades the connection.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	token := middleware.ExtractToken(c)
	if token == "" {
		response.Unauthorized(c, "missing authentication token")
		return
	}

	auth, err := h.hub.AuthenticateClient(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("websocket authentication failed", zap.String("ip", c.ClientIP()), zap.Error(err))
		response.Error(c, http.StatusUnauthorized, "authentication failed", err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.String("ip", c.ClientIP()), zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, auth)
	if err := h.hub.Register(c.Request.Context(), client); err != nil {
		h.logger.Warn("websocket register failed", zap.String("user_id", auth.UserID), zap.Error(err))
		conn.Close()
		return
	}

	h.logger.Info("websocket client connected",
		zap.String("user_id", auth.UserID),
		zap.String("session_id", auth.SessionID),
		zap.String("role", auth.Role),
	)

	go client.WritePump()
	go client.ReadPump()
}

// GetStats reports live connection counts (admin only).
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"total_connections": h.hub.TotalClients(),
		"timestamp":         time.Now(),
	}

	response.Success(c, http.StatusOK, "websocket stats", stats)
}
