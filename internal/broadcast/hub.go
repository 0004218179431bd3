// Package broadcast pushes finished runs to live WebSocket subscribers.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"safe-bets/internal/observability"
	"safe-bets/internal/pipeline"
	"safe-bets/internal/reporting"
)

// MessageTypeRun marks a message carrying the recommendations of one run.
const MessageTypeRun = "run"

// ErrHubStopped is returned by Publish after the hub loop has exited.
var ErrHubStopped = errors.New("broadcast hub stopped")

// Message is the payload sent to subscribers.
type Message struct {
	Type            string                         `json:"type"`
	RunDate         string                         `json:"run_date"`
	Evaluated       int                            `json:"evaluated"`
	Recommendations []reporting.RecommendationView `json:"recommendations"`
	Timestamp       time.Time                      `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub tracks subscribers and fans run messages out to them.
// New subscribers receive the latest run on connect.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	clientsMu sync.RWMutex
	clients   map[*Client]struct{}

	lastMu sync.RWMutex
	last   []byte

	logger *log.Logger
	clock  func() time.Time
}

// NewHub creates a hub. Call Run to start it.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 8),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		logger:     logger,
		clock:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for message timestamps.
func (h *Hub) WithClock(clock func() time.Time) *Hub {
	h.clock = clock
	return h
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Name identifies the publisher in logs and metrics.
func (h *Hub) Name() string {
	return "websocket"
}

// Publish broadcasts the recommendations of a run to every subscriber.
func (h *Hub) Publish(ctx context.Context, res *pipeline.Result) error {
	msg, err := json.Marshal(Message{
		Type:            MessageTypeRun,
		RunDate:         res.RunDate,
		Evaluated:       len(res.Evaluations),
		Recommendations: reporting.NewRecommendationViews(res.RunDate, res.Recommendations),
		Timestamp:       h.clock(),
	})
	if err != nil {
		return fmt.Errorf("marshal run message: %w", err)
	}

	h.lastMu.Lock()
	h.last = msg
	h.lastMu.Unlock()

	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handler upgrades requests to WebSocket subscribers. The pumps stop with ctx.
func (h *Hub) Handler(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Printf("WARN: websocket upgrade: %v", err)
			return
		}

		c := newClient(uuid.New().String(), conn, h)
		h.Register(c)

		go c.writePump(ctx)
		go c.readPump()
	}
}

func (h *Hub) add(c *Client) {
	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.clientsMu.Unlock()
	observability.UpdateWSClients(n)

	h.lastMu.RLock()
	last := h.last
	h.lastMu.RUnlock()
	if last != nil {
		c.trySend(last)
	}
	h.logger.Printf("client %s connected (total: %d)", c.ID, n)
}

func (h *Hub) remove(c *Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.clientsMu.Unlock()
	if ok {
		observability.UpdateWSClients(n)
		h.logger.Printf("client %s disconnected (total: %d)", c.ID, n)
	}
}

// fanOut delivers msg to every client. Clients with a full buffer are dropped.
func (h *Hub) fanOut(msg []byte) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		if !c.trySend(msg) {
			h.logger.Printf("WARN: client %s buffer full, disconnecting", c.ID)
			h.remove(c)
		}
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	observability.UpdateWSClients(0)
}

var _ pipeline.Publisher = (*Hub)(nil)
