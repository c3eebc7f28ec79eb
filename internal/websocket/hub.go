package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mythictransfers/supportdesk/internal/logger"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// QueueChanged is pushed to every reviewer when the review queue changes.
type QueueChanged struct {
	Type     string `json:"type"`
	Action   string `json:"action"`
	ReviewID string `json:"reviewId"`
}

// Client wraps a reviewer's WebSocket connection.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Conn returns the underlying WebSocket connection.
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

func (c *Client) write(msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Hub tracks reviewer connections, several per reviewer (one per open tab).
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]map[*Client]struct{} // reviewer -> set of clients
	maxPerUser int
	log        *zap.Logger
}

// NewHub creates a Hub with a per-reviewer connection limit.
func NewHub(maxPerUser int, log *zap.Logger) *Hub {
	if maxPerUser <= 0 {
		maxPerUser = 10
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		maxPerUser: maxPerUser,
		log:        logger.Named(log, "websocket"),
	}
}

// Register adds a connection for reviewer.
// Past the per-reviewer limit the new connection is closed and nil is returned.
func (h *Hub) Register(reviewer string, conn *websocket.Conn) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	reviewerClients, ok := h.clients[reviewer]
	if !ok {
		reviewerClients = make(map[*Client]struct{})
		h.clients[reviewer] = reviewerClients
	}

	if len(reviewerClients) >= h.maxPerUser {
		h.log.Warn("Reviewer exceeded max connections, closing new connection",
			zap.String("reviewer", reviewer), zap.Int("max", h.maxPerUser))
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too many connections for this reviewer"),
			time.Now().Add(time.Second),
		)
		_ = conn.Close()
		return nil
	}

	client := &Client{conn: conn}
	reviewerClients[client] = struct{}{}
	return client
}

// Unregister removes client and closes its connection.
func (h *Hub) Unregister(reviewer string, client *Client) {
	if client == nil {
		return
	}

	h.mu.Lock()
	if reviewerClients, ok := h.clients[reviewer]; ok {
		delete(reviewerClients, client)
		if len(reviewerClients) == 0 {
			delete(h.clients, reviewer)
		}
	}
	h.mu.Unlock()

	_ = client.conn.Close()
}

// Broadcast sends msg to every connected reviewer. Failed clients are dropped.
func (h *Hub) Broadcast(msg []byte) {
	type target struct {
		reviewer string
		client   *Client
	}

	h.mu.RLock()
	targets := make([]target, 0)
	for reviewer, reviewerClients := range h.clients {
		for client := range reviewerClients {
			targets = append(targets, target{reviewer, client})
		}
	}
	h.mu.RUnlock()

	for _, t := range targets {
		if err := t.client.write(msg); err != nil {
			h.log.Warn("Failed to write message", zap.String("reviewer", t.reviewer), zap.Error(err))
			h.Unregister(t.reviewer, t.client)
		}
	}
}

// NotifyQueueChanged tells reviewers to refresh the queue.
func (h *Hub) NotifyQueueChanged(action, reviewID string) {
	msg, err := json.Marshal(QueueChanged{Type: "queue_changed", Action: action, ReviewID: reviewID})
	if err != nil {
		h.log.Error("Failed to marshal queue notification", zap.Error(err))
		return
	}
	h.Broadcast(msg)
}

// ActiveConnections returns the number of open connections for reviewer.
func (h *Hub) ActiveConnections(reviewer string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[reviewer])
}

// TotalConnections returns the number of open connections across reviewers.
func (h *Hub) TotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, reviewerClients := range h.clients {
		total += len(reviewerClients)
	}
	return total
}
