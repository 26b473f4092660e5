package broadcast

import (
	"context"
	"sync"

	"github.com/smallnest/chanx"
)

// subscriber owns an unbounded queue so that a slow reader never stalls a broadcaster
type subscriber[T any] struct {
	queue  *chanx.UnboundedChan[T]
	cancel context.CancelFunc
}

// Channel fans messages for one topic out to all of its subscribers
type Channel[T any] struct {
	mu          sync.RWMutex
	subscribers map[<-chan T]*subscriber[T]
	bufferSize  int
}

// NewChannel creates an empty channel whose subscriber queues start with bufferSize slots
func NewChannel[T any](bufferSize int) *Channel[T] {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Channel[T]{
		subscribers: make(map[<-chan T]*subscriber[T]),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a new subscriber and returns its receive side
func (c *Channel[T]) Subscribe() <-chan T {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscriber[T]{
		queue:  chanx.NewUnboundedChan[T](ctx, c.bufferSize),
		cancel: cancel,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers[sub.queue.Out] = sub
	return sub.queue.Out
}

// Unsubscribe removes the subscriber and closes its channel. Undelivered messages are dropped.
func (c *Channel[T]) Unsubscribe(ch <-chan T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sub, exists := c.subscribers[ch]; exists {
		delete(c.subscribers, ch)
		sub.close()
	}
}

// UnsubscribeAll closes every subscriber channel
func (c *Channel[T]) UnsubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subscribers {
		sub.close()
	}
	clear(c.subscribers)
}

// Broadcast queues message for every current subscriber without waiting for them to read
func (c *Channel[T]) Broadcast(message T) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, sub := range c.subscribers {
		sub.queue.In <- message
	}
}

// IsIdle reports whether the channel has no subscribers
func (c *Channel[T]) IsIdle() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscribers) == 0
}

func (s *subscriber[T]) close() {
	s.cancel()
	close(s.queue.In)
}
