package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"cabbooking/internal/logger"
	ws "cabbooking/internal/websocket"
)

// WSHandler upgrades connections for live booking notifications.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *ws.Hub, log *logger.Logger) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log.Named("ws"),
	}
}

// Connect handles GET /v1/ws
func (h *WSHandler) Connect(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Warn("websocket upgrade failed", logger.String("user_id", caller.ID), logger.Err(err))
		return
	}

	client := h.hub.Serve(conn, caller.ID, string(caller.Role))
	h.log.Debug("websocket connected",
		logger.String("user_id", caller.ID),
		logger.String("client_id", client.ID))
}
