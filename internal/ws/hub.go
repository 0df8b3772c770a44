package ws

import (
	"encoding/json"
	"sync"
)

// Client represents a single WebSocket connection. Admin connections carry the admin id.
type Client struct {
	AdminID uint
	Admin   bool
	Send    chan []byte
	Hub     *Hub // set by Register so Close() can unregister
	mu      sync.Mutex
	closed  bool
}

func NewClient(adminID uint, admin bool) *Client {
	return &Client{AdminID: adminID, Admin: admin, Send: make(chan []byte, 256)}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.Hub != nil {
		c.Hub.unregister(c)
	}
}

// Hub maintains the set of active clients and broadcasts to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Hub = h
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// BroadcastAll sends payload to every connection, public and admin.
func (h *Hub) BroadcastAll(payload interface{}) {
	h.broadcast(payload, func(*Client) bool { return true })
}

// BroadcastAdmins sends payload to admin connections only.
func (h *Hub) BroadcastAdmins(payload interface{}) {
	h.broadcast(payload, func(c *Client) bool { return c.Admin })
}

func (h *Hub) broadcast(payload interface{}, match func(*Client) bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if match(c) {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.mu.Lock()
		if !c.closed {
			select {
			case c.Send <- data:
			default:
			}
		}
		c.mu.Unlock()
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
