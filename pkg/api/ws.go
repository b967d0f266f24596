package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"market-cutover/pkg/model"
)

const (
	subscriberBuffer = 64
	writeWait        = 5 * time.Second
)

// WSMessage is the envelope pushed to UI subscribers.
type WSMessage struct {
	Type    string      `json:"type"` // step_event
	Payload interface{} `json:"payload,omitempty"`
}

// EventHub fans step transitions out to websocket subscribers. Slow
// subscribers drop events rather than stall the orchestrator.
type EventHub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[*websocket.Conn]chan WSMessage
	logger   *zap.Logger
}

func NewEventHub(logger *zap.Logger) *EventHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs:   map[*websocket.Conn]chan WSMessage{},
		logger: logger,
	}
}

// Notify implements migration.Notifier.
func (h *EventHub) Notify(evt model.StepEvent) {
	msg := WSMessage{Type: "step_event", Payload: evt}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.logger.Warn("ws subscriber lagging, event dropped",
				zap.String("remote", c.RemoteAddr().String()),
				zap.String("step", evt.Step.ID))
		}
	}
}

// Subscribers reports the number of connected UI clients.
func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// HandleEvents upgrades the request and streams every step event to it.
func (h *EventHub) HandleEvents(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	ch := make(chan WSMessage, subscriberBuffer)
	h.mu.Lock()
	h.subs[c] = ch
	h.mu.Unlock()
	h.logger.Info("ui event subscriber connected", zap.String("remote", c.RemoteAddr().String()))

	done := make(chan struct{})
	go h.readLoop(c, done)
	go h.writeLoop(c, ch, done)
}

// readLoop discards client frames and signals when the peer goes away.
func (h *EventHub) readLoop(c *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		if _, _, err := c.NextReader(); err != nil {
			return
		}
	}
}

func (h *EventHub) writeLoop(c *websocket.Conn, ch chan WSMessage, done chan struct{}) {
	defer h.closeSub(c)
	for {
		select {
		case <-done:
			return
		case msg := <-ch:
			_ = c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteJSON(msg); err != nil {
				h.logger.Warn("ws send failed", zap.Error(err))
				return
			}
		}
	}
}

func (h *EventHub) closeSub(c *websocket.Conn) {
	_ = c.Close()
	h.mu.Lock()
	delete(h.subs, c)
	h.mu.Unlock()
	h.logger.Info("ui event subscriber disconnected", zap.String("remote", c.RemoteAddr().String()))
}
