package stream

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/mfelden/tripwatch-backend-go/internal/models"
)

// Hub fans detection engine events out to connected websocket clients.
// Broadcast never blocks: a client that cannot keep up has events dropped
// on its channel rather than stalling the pipeline.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// Client is one websocket subscriber.
type Client struct {
	Send chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register adds a client and returns its handle.
func (h *Hub) Register() *Client {
	client := &Client{Send: make(chan []byte, 64)}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
	return client
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast serializes an engine event and sends it to every client.
func (h *Hub) Broadcast(event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Stream] Failed to marshal %s event: %v", event.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}
