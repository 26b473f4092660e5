package broadcast

import (
	"errors"
	"sync"
)

// ErrHubClosed is returned when subscribing to a hub that has been closed
var ErrHubClosed = errors.New("broadcast hub is closed")

// Hub manages one Channel per topic, e.g. one per auction ID.
// Channels are created on first subscription and dropped when their last subscriber leaves.
type Hub[T any] struct {
	mu         sync.RWMutex
	channels   map[string]*Channel[T]
	bufferSize int
	closed     bool
}

// NewHub creates a hub whose subscriber queues start with bufferSize slots
func NewHub[T any](bufferSize int) *Hub[T] {
	return &Hub[T]{
		channels:   make(map[string]*Channel[T]),
		bufferSize: bufferSize,
	}
}

// Subscribe subscribes to topic
func (h *Hub[T]) Subscribe(topic string) (<-chan T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	c, ok := h.channels[topic]
	if !ok {
		c = NewChannel[T](h.bufferSize)
		h.channels[topic] = c
	}
	return c.Subscribe(), nil
}

// Publish delivers message to every subscriber of topic. Topics without subscribers are a no-op.
func (h *Hub[T]) Publish(topic string, message T) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if c, ok := h.channels[topic]; ok {
		c.Broadcast(message)
	}
}

// Unsubscribe removes ch from topic
func (h *Hub[T]) Unsubscribe(topic string, ch <-chan T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.channels[topic]
	if !ok {
		return
	}

	c.Unsubscribe(ch)
	if c.IsIdle() {
		delete(h.channels, topic)
	}
}

// Subscribers returns the number of open subscriptions on topic
func (h *Hub[T]) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.channels[topic]
	if !ok {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscribers)
}

// Close closes every subscription. Later subscriptions fail with ErrHubClosed.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for _, c := range h.channels {
		c.UnsubscribeAll()
	}
	clear(h.channels)
}
