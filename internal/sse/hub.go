package sse

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// EventType defines the SSE event name.
type EventType string

const (
	EventDeveloperAssigned   EventType = "product.developer_assigned"
	EventDeveloperUnassigned EventType = "product.developer_unassigned"
	EventStatusChanged       EventType = "product.status_changed"
)

// ProductEvent is the payload broadcast to dashboard SSE clients.
type ProductEvent struct {
	Event       EventType `json:"event"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	DeveloperID string    `json:"developerId,omitempty"`
	Role        string    `json:"role,omitempty"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"`
	Warnings    []string  `json:"warnings,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

const clientBuffer = 64

// Client is one connected dashboard stream. Events is closed when the client
// is unregistered or the hub shuts down.
type Client struct {
	ID     string
	Events chan []byte

	dropped atomic.Int64
}

// Dropped returns the number of events discarded because the client lagged.
func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}

// Hub fans product events out to dashboard streams.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register adds a stream under clientID, disconnecting any stream that held
// the id before. On a closed hub the returned client is already closed.
func (h *Hub) Register(clientID string) *Client {
	c := &Client{ID: clientID, Events: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(c.Events)
		return c
	}
	if prev, ok := h.clients[clientID]; ok {
		close(prev.Events)
	}
	h.clients[clientID] = c
	log.Info().Str("client_id", clientID).Int("total_clients", len(h.clients)).Msg("SSE client connected")
	return c
}

// Unregister removes c if it is still the stream registered under its id.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.clients[c.ID]; !ok || cur != c {
		return
	}
	delete(h.clients, c.ID)
	close(c.Events)
	log.Info().
		Str("client_id", c.ID).
		Int64("dropped", c.Dropped()).
		Int("total_clients", len(h.clients)).
		Msg("SSE client disconnected")
}

// Broadcast queues event on every stream without blocking. A stream whose
// buffer is full misses the event.
func (h *Hub) Broadcast(event *ProductEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event", string(event.Event)).Msg("Failed to marshal SSE event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.Events <- data:
		default:
			n := c.dropped.Add(1)
			log.Warn().Str("client_id", c.ID).Int64("dropped", n).Msg("SSE client lagging, event dropped")
		}
	}
}

// ClientCount returns the number of connected streams.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close ends every stream and refuses new ones. Call it before
// http.Server.Shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.clients {
		close(c.Events)
		delete(h.clients, id)
	}
	log.Info().Msg("SSE hub closed")
}
