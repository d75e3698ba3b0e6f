// Package hub is the realtime gateway: it owns connection lifecycle, the
// presence registry bindings, the roster broadcast, and best-effort message
// delivery to connected recipients.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/pairchat/pairchat/internal/config"
	"github.com/pairchat/pairchat/internal/domain"
	"github.com/pairchat/pairchat/internal/presence"
	"github.com/pairchat/pairchat/pkg/log"
)

// Hub serializes registration and deregistration through a single run loop,
// so a register+broadcast can never interleave with a deregister+broadcast
// in a way that leaves a stale roster as the last one sent. Delivery and
// snapshots are lock-protected reads and may come from any goroutine.
type Hub struct {
	registry *presence.Registry[*Client]

	mu    sync.RWMutex
	conns map[*Client]struct{} // every live transport, registered or not

	register   chan *Client
	unregister chan *Client

	cfg config.WebSocketConfig

	// version of the last roster broadcast; only touched inside Run.
	lastRoster uint64
}

// NewHub creates a hub. Call Run in its own goroutine before registering.
func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		registry:   presence.NewRegistry[*Client](),
		conns:      make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		cfg:        cfg,
	}
}

// Config returns the websocket timing configuration clients run with.
func (h *Hub) Config() config.WebSocketConfig {
	return h.cfg
}

// Register hands a freshly connected client to the run loop.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister hands a disconnected client to the run loop. Safe to call more
// than once and for clients that never completed registration.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// Run processes connection lifecycle events until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.conns[c] = struct{}{}
			h.mu.Unlock()

			if c.UserID != "" {
				if prior, replaced := h.registry.Register(c.UserID, c); replaced {
					// Last connection wins; force-close the superseded one
					// so it cannot linger as a stale transport.
					prior.shutdown()
					log.L().Info().Str(log.FieldUserID, c.UserID).Msg("connection replaced")
				}
				log.L().Info().Str(log.FieldUserID, c.UserID).Msg("client registered")
			} else {
				log.L().Debug().Msg("anonymous client connected")
			}

			h.broadcastRoster()

		case c := <-h.unregister:
			h.mu.Lock()
			_, known := h.conns[c]
			delete(h.conns, c)
			h.mu.Unlock()
			if !known {
				// Duplicate disconnect event.
				continue
			}

			if c.UserID != "" {
				h.registry.Deregister(c.UserID, c)
				log.L().Info().Str(log.FieldUserID, c.UserID).Msg("client deregistered")
			}
			c.shutdown()

			h.broadcastRoster()
		}
	}
}

// Deliver pushes a newMessage event to the receiver if it is currently
// registered. An offline receiver is not an error: the message is already
// durable and will surface on the next history fetch. Returns whether the
// event was handed to a live connection.
func (h *Hub) Deliver(senderID, receiverID string, msg *domain.Message) bool {
	receiver, ok := h.registry.Lookup(receiverID)
	if !ok {
		return false
	}

	data, err := json.Marshal(domain.NewMessageEvent(msg))
	if err != nil {
		log.L().Error().Err(err).Str(log.FieldMessageID, msg.ID).Msg("failed to marshal newMessage event")
		return false
	}

	if !receiver.enqueue(data) {
		// Slow or dying connection; drop it rather than block delivery.
		log.L().Warn().Str(log.FieldUserID, receiverID).Msg("dropping unresponsive client on deliver")
		go h.Unregister(receiver)
		return false
	}
	return true
}

// OnlineUsers returns the identities currently registered.
func (h *Hub) OnlineUsers() []string {
	roster, _ := h.registry.Snapshot()
	return roster
}

// broadcastRoster pushes the current roster to every connection, registered
// or anonymous. Fire-and-forget: per-connection failures are isolated and
// resolved through the normal disconnect path.
func (h *Hub) broadcastRoster() {
	roster, version := h.registry.Snapshot()
	if version < h.lastRoster {
		return
	}
	h.lastRoster = version

	data, err := json.Marshal(domain.NewOnlineUsersEvent(roster))
	if err != nil {
		log.L().Error().Err(err).Msg("failed to marshal roster event")
		return
	}

	h.mu.RLock()
	var stale []*Client
	for c := range h.conns {
		if !c.enqueue(data) {
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		go h.Unregister(c)
	}
}
