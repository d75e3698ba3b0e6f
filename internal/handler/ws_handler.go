package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/pairchat/pairchat/internal/hub"
	"github.com/pairchat/pairchat/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades websocket connections and binds them to the gateway.
type WSHandler struct {
	hub *hub.Hub
}

// NewWSHandler creates a new websocket handler.
func NewWSHandler(h *hub.Hub) *WSHandler {
	return &WSHandler{hub: h}
}

// HandleWebSocket upgrades the connection and registers it with the hub.
// The client supplies its identity as the userId query parameter; a missing
// userId is legal and yields an anonymous connection that receives roster
// broadcasts but no targeted deliveries.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	userID := c.Query("userId")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(userID, h.hub, conn, h.hub.Config())
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// RegisterRoutes mounts the websocket endpoint.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}
