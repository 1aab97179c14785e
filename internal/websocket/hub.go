// Package websocket pushes booking and payment updates to connected riders
// and drivers.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"cabbooking/internal/logger"
	"cabbooking/internal/metrics"
)

// Message is the envelope written to clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub tracks live clients per user. Run must be running for clients to be
// registered.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	log        *logger.Logger
}

// NewHub creates a new Hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.Named("ws"),
	}
}

// Run serves registrations until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case <-ctx.Done():
			h.mu.Lock()
			for userID, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			metrics.WebsocketClients.Set(0)
			return
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	metrics.WebsocketClients.Inc()
	h.log.Debug("client registered",
		logger.String("client_id", c.ID),
		logger.String("user_id", c.UserID))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.send)
	metrics.WebsocketClients.Dec()
	h.log.Debug("client unregistered", logger.String("client_id", c.ID))
}

// Register adds a client. It is a no-op once the hub has stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client and closes its send queue.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// SendToUser queues payload for every connection of userID. Slow clients
// whose buffers are full miss the message.
func (h *Hub) SendToUser(userID string, payload any) {
	data, err := json.Marshal(Message{Type: "notification", Data: payload})
	if err != nil {
		h.log.Error("marshal message failed", logger.Err(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
			h.log.Warn("client send buffer full",
				logger.String("user_id", userID),
				logger.String("client_id", c.ID))
		}
	}
}

// ClientCount returns the number of live connections for userID.
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
