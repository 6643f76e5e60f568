package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

// WSClient is one dashboard connection. Writes go through Send so the
// broadcast path and the keepalive pinger never write concurrently.
type WSClient struct {
	UserID uint
	conn   *websocket.Conn
	mu     sync.Mutex
}

func NewWSClient(userID uint, conn *websocket.Conn) *WSClient {
	return &WSClient{UserID: userID, conn: conn}
}

func (c *WSClient) Send(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(messageType, data)
}

func (c *WSClient) Ping() error {
	return c.Send(websocket.PingMessage, nil)
}

// ReadLoop blocks until the peer closes or errors; incoming frames are
// discarded, the stream is push-only.
func (c *WSClient) ReadLoop() error {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return err
		}
	}
}

// Event is the envelope pushed to dashboard clients.
type Event struct {
	Kind    string `json:"kind"` // e.g. "alert.created"
	Payload any    `json:"payload"`
}

// RealtimeHub tracks open websocket connections per user so spoilage
// alerts show up on the dashboard without a refresh. Delivery is
// best-effort: a client that cannot be written to is dropped.
type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[uint]map[*WSClient]struct{}
}

func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{clients: make(map[uint]map[*WSClient]struct{})}
}

func (h *RealtimeHub) Register(c *WSClient) {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*WSClient]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

// Connections reports how many sockets a user has open.
func (h *RealtimeHub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish sends an event to every connection the user has open and
// drops connections whose writes fail.
func (h *RealtimeHub) Publish(userID uint, ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.Send(websocket.TextMessage, msg); err != nil {
			h.Unregister(c)
		}
	}
}
