// Package messenger delivers session turns to connected chat clients.
package messenger

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/model"
	ws "github.com/stemsi/exstem-quiz/internal/websocket"
)

// ErrTargetOffline is returned when no client is connected for a target.
var ErrTargetOffline = errors.New("delivery target is offline")

// Conn is a client connection. *websocket.Conn satisfies it.
type Conn interface {
	ws.JSONWriter
	Close() error
}

// TargetFor returns the delivery target of a user.
func TargetFor(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Client serializes writes to one connection; handlers and the hub both
// write to it.
type Client struct {
	mu   sync.Mutex
	conn Conn
}

// Send writes v as one JSON message.
func (c *Client) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ws.WriteTyped(c.conn, v)
}

// SendError writes an error event.
func (c *Client) SendError(code, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ws.WriteError(c.conn, code, msg)
}

// Hub maps delivery targets to connected clients. One client per target;
// a new connection replaces and closes the previous one.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     zerolog.Logger
}

// NewHub creates a new Hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		log:     log.With().Str("component", "messenger_hub").Logger(),
	}
}

// Register attaches conn to target.
func (h *Hub) Register(target string, conn Conn) *Client {
	c := &Client{conn: conn}

	h.mu.Lock()
	prev := h.clients[target]
	h.clients[target] = c
	h.mu.Unlock()

	if prev != nil {
		prev.mu.Lock()
		_ = prev.conn.Close()
		prev.mu.Unlock()
		h.log.Info().Str("target", target).Msg("Client replaced by a new connection")
	}
	return c
}

// Unregister detaches c from target if it is still the registered client.
func (h *Hub) Unregister(target string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[target]; ok && cur == c {
		delete(h.clients, target)
	}
}

// Online reports whether a client is connected for target.
func (h *Hub) Online(target string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[target]
	return ok
}

// Connected returns the number of connected clients.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DeliverQuestion implements session.Messenger.
func (h *Hub) DeliverQuestion(ctx context.Context, target string, q model.QuestionDelivery) error {
	return h.send(ctx, target, ws.QuestionEvent{Event: ws.EventQuestion, Data: q})
}

// DeliverCompletion implements session.Messenger.
func (h *Hub) DeliverCompletion(ctx context.Context, target string, s model.CompletionSummary) error {
	return h.send(ctx, target, ws.CompletedEvent{Event: ws.EventCompleted, Data: s})
}

func (h *Hub) send(ctx context.Context, target string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	c := h.clients[target]
	h.mu.RUnlock()
	if c == nil {
		return ErrTargetOffline
	}

	if err := c.Send(v); err != nil {
		h.Unregister(target, c)
		return err
	}
	return nil
}

// CloseAll closes every connection.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		_ = c.conn.Close()
		c.mu.Unlock()
	}
}
