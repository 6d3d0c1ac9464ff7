// Package notify persists notifications and pushes them to connected
// clients over Server-Sent Events.
package notify

import (
	"sync"

	"github.com/skillsenselab/skillloop/internal/logger"
)

// Client represents one connected SSE stream for a user. A user may hold
// several clients at once (multiple tabs or devices).
type Client struct {
	id     string
	userID string
	events chan []byte
}

// NewClient creates a client for the given user.
func NewClient(id, userID string) *Client {
	return &Client{
		id:     id,
		userID: userID,
		events: make(chan []byte, 64),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() string { return c.id }

// UserID returns the user this client streams for.
func (c *Client) UserID() string { return c.userID }

// Events returns the channel for receiving events.
func (c *Client) Events() <-chan []byte { return c.events }

// Send queues data for the client. It returns false when the buffer is full
// and the message was dropped; slow consumers never block the hub.
func (c *Client) Send(data []byte) bool {
	select {
	case c.events <- data:
		return true
	default:
		logger.Warn("SSE client channel full, dropping message", map[string]interface{}{
			"client_id": c.id,
			"user_id":   c.userID,
		})
		return false
	}
}

// Close closes the client's event channel.
func (c *Client) Close() { close(c.events) }

// Hub routes notification payloads to the clients of a single user.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	send       chan userMessage
	done       chan struct{}
	stopped    bool
	mu         sync.RWMutex
}

type userMessage struct {
	userID string
	data   []byte
}

// NewHub creates a hub. Call Run in a goroutine before registering clients.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		send:       make(chan userMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main event loop. It blocks until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()
			logger.Debug("SSE client registered", map[string]interface{}{
				"client_id":     client.id,
				"user_id":       client.userID,
				"total_clients": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.Close()
			}
			h.mu.Unlock()

		case msg := <-h.send:
			h.deliver(msg.userID, msg.data)
		}
	}
}

// Stop shuts the hub down and disconnects all clients. Safe to call more
// than once.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.Close()
		delete(h.clients, id)
	}
}

// Register adds a client to the hub. Returns immediately if the hub has
// stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub. Returns immediately if the hub
// has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUser queues data for every connected client of the user.
func (h *Hub) SendToUser(userID string, data []byte) {
	select {
	case h.send <- userMessage{userID: userID, data: data}:
	case <-h.done:
	}
}

func (h *Hub) deliver(userID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, client := range h.clients {
		if client.userID == userID {
			if client.Send(data) {
				delivered++
			}
		}
	}
	logger.Debug("SSE delivery", map[string]interface{}{
		"user_id":   userID,
		"delivered": delivered,
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
