package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pairchat/pairchat/internal/config"
	"github.com/pairchat/pairchat/pkg/log"
)

// Client binds one websocket connection to at most one user identity.
// UserID is empty for anonymous connections: they stay out of the presence
// registry but still receive roster broadcasts.
type Client struct {
	UserID string
	hub    *Hub
	conn   *websocket.Conn
	cfg    config.WebSocketConfig

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient creates a client for an upgraded connection.
func NewClient(userID string, h *Hub, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	return &Client{
		UserID: userID,
		hub:    h,
		conn:   conn,
		cfg:    cfg,
		send:   make(chan []byte, 256),
	}
}

// enqueue queues an outbound frame without blocking. It reports false when
// the client is already closed or its buffer is full; the caller decides
// whether that is grounds for dropping the connection.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// shutdown closes the send channel exactly once. The write pump reacts by
// sending a close frame and tearing down the transport.
func (c *Client) shutdown() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

// ReadPump consumes the connection until it dies. Clients never push chat
// payloads over the socket (sending goes through HTTP), so inbound frames
// are drained solely to service pings and detect disconnect.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.L().Debug().Err(err).Str(log.FieldUserID, c.UserID).Msg("websocket read error")
			}
			break
		}
	}
}

// WritePump drains the send channel onto the connection and keeps the
// transport alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
