package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"pickem-go/logging"
	"pickem-go/middleware"
	"pickem-go/models"
	"pickem-go/services"
)

var _ services.GamesUpdatedNotifier = (*SSEHandler)(nil)

// GamesUpdatedEvent is the SSE event name sent after a reconciliation pass
const GamesUpdatedEvent = "games-updated"

const clientBuffer = 16

type sseClient struct {
	ch     chan string
	userID int
}

// SSEHandler streams game updates to connected browsers
type SSEHandler struct {
	mu             sync.RWMutex
	clients        map[*sseClient]struct{}
	messageCounter uint64
	heartbeat      time.Duration
	stop           chan struct{}
	stopOnce       sync.Once
	logger         *logging.Logger
}

// NewSSEHandler creates the hub and starts its heartbeat
func NewSSEHandler(heartbeat time.Duration) *SSEHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	h := &SSEHandler{
		clients:   make(map[*sseClient]struct{}),
		heartbeat: heartbeat,
		stop:      make(chan struct{}),
		logger:    logging.WithPrefix("SSE"),
	}
	go h.heartbeatLoop()
	return h
}

// Handle serves GET /events
func (h *SSEHandler) Handle(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := &sseClient{ch: make(chan string, clientBuffer)}
	if user := middleware.GetUserFromContext(r); user != nil {
		client.userID = user.ID
	}
	h.register(client)
	defer h.unregister(client)

	fmt.Fprint(w, "event: connection\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case msg, ok := <-client.ch:
			if !ok {
				return
			}
			if _, err := fmt.Fprint(w, msg); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		case <-h.stop:
			return
		}
	}
}

// NotifyGamesUpdated broadcasts the report to every connected client
func (h *SSEHandler) NotifyGamesUpdated(ctx context.Context, report *models.ReconcileReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling reconcile report: %w", err)
	}
	h.Broadcast(GamesUpdatedEvent, string(data))
	return nil
}

// Broadcast sends one event to every client. Slow clients miss the message
// rather than block the sender.
func (h *SSEHandler) Broadcast(event, data string) {
	id := atomic.AddUint64(&h.messageCounter, 1)
	msg := fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", id, event, data)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.ch <- msg:
		default:
			h.logger.Warnf("Dropping %s for slow client (user %d)", event, client.userID)
		}
	}
}

// ClientCount reports how many streams are open
func (h *SSEHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop ends the heartbeat and closes every open stream
func (h *SSEHandler) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *SSEHandler) register(c *sseClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debugf("Client connected (user %d), %d open", c.userID, n)
}

func (h *SSEHandler) unregister(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debugf("Client disconnected (user %d), %d open", c.userID, n)
}

func (h *SSEHandler) heartbeatLoop() {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.Broadcast("heartbeat", "keep-alive")
		case <-h.stop:
			return
		}
	}
}
