// Package notify pushes project progress to websocket subscribers.
// Delivery is at-most-once: a subscriber that cannot keep up loses messages.
package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/metrics"
	"go.uber.org/zap"
)

const (
	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

// Progress is the share of done tasks in a project.
type Progress struct {
	ProjectID string `json:"project_id"`
	Percent   int    `json:"percent"`
}

// Message is the envelope written to subscribers.
type Message struct {
	Event string   `json:"event"`
	Data  Progress `json:"data"`
}

// Publisher accepts progress updates without ever failing the caller.
type Publisher interface {
	PublishProgress(p Progress)
}

// Discard drops every update.
type Discard struct{}

func (Discard) PublishProgress(Progress) {}

// Hub fans progress updates out to every connected subscriber.
type Hub struct {
	mu      sync.RWMutex
	subs    map[int]chan Message
	next    int
	logger  *zap.Logger
	metrics *metrics.Metrics

	upgrader websocket.Upgrader
}

func NewHub(logger *zap.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:    make(map[int]chan Message),
		logger:  logger,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Subscribe registers a subscriber. The channel is closed when ctx ends.
func (h *Hub) Subscribe(ctx context.Context) <-chan Message {
	ch := make(chan Message, subscriberBuffer)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// PublishProgress fans p out without blocking on slow subscribers.
func (h *Hub) PublishProgress(p Progress) {
	msg := Message{Event: constants.ProgressChannel, Data: p}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- msg:
			h.metrics.Notification("delivered")
		default:
			h.metrics.Notification("dropped")
			h.logger.Debug("dropped progress update for slow subscriber",
				zap.String("project_id", p.ProjectID))
		}
	}
}

// ServeHTTP upgrades the request to a websocket and streams updates until
// the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// inbound frames are ignored; a read error means the peer is gone
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for msg := range h.Subscribe(ctx) {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			cancel()
		}
	}
}
