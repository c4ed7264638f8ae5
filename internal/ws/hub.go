// Package ws pushes notifications and new chat messages to connected
// clients. Everything pushed here is also persisted, so a client that was
// offline catches up over the REST endpoints.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/culturekart/marketplace-backend/internal/models"
)

// Hub tracks the open connections per user.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
}

type envelope struct {
	userID  uuid.UUID
	payload []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, 32),
	}
}

// Run is the hub's main loop; call it once, in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.userID, msg.payload)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// PushNotification delivers a stored notification to the user's live
// connections, if any.
func (h *Hub) PushNotification(userID uuid.UUID, n *models.Notification) {
	h.push(userID, "notification", n)
}

// PushMessage delivers a new chat message to the recipient's live
// connections, if any.
func (h *Hub) PushMessage(userID uuid.UUID, msg *models.Message) {
	h.push(userID, "message.new", msg)
}

// Wire contract: "type" names the event, "data" carries the payload.
func (h *Hub) push(userID uuid.UUID, event string, data any) {
	raw, err := json.Marshal(map[string]any{"type": event, "data": data})
	if err != nil {
		logrus.WithError(err).WithField("event", event).Warn("ws: marshal push failed")
		return
	}
	h.broadcast <- envelope{userID: userID, payload: raw}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.userID)
		}
	}
}

func (h *Hub) send(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			// Slow consumer; drop the connection rather than the hub.
			go client.Close()
		}
	}
}
