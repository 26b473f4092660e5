package events

import (
	"context"
	"sync"
	"time"

	"vehicle-auction/utils"

	"github.com/smallnest/chanx"
)

// Publisher delivers bid events to one external system
type Publisher interface {
	Name() string
	Publish(ctx context.Context, event BidAcceptedEvent) error
	Close() error
}

// Dispatcher decouples bid commits from broker latency: Enqueue never blocks, and a single
// worker hands events to every publisher in acceptance order.
type Dispatcher struct {
	publishers     []Publisher
	queue          *chanx.UnboundedChan[BidAcceptedEvent]
	publishTimeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher for publishers. Call Start before enqueueing.
func NewDispatcher(publishTimeout time.Duration, publishers ...Publisher) *Dispatcher {
	if publishTimeout <= 0 {
		publishTimeout = 5 * time.Second
	}
	return &Dispatcher{
		publishers:     publishers,
		queue:          chanx.NewUnboundedChan[BidAcceptedEvent](context.Background(), 64),
		publishTimeout: publishTimeout,
	}
}

// Start launches the delivery worker
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for event := range d.queue.Out {
			d.deliver(event)
		}
	}()
}

func (d *Dispatcher) deliver(event BidAcceptedEvent) {
	for _, p := range d.publishers {
		ctx, cancel := context.WithTimeout(context.Background(), d.publishTimeout)
		err := p.Publish(ctx, event)
		cancel()
		if err != nil {
			utils.Error("Dispatcher: failed to publish bid event", map[string]any{
				"publisher":  p.Name(),
				"event_id":   event.EventID,
				"auction_id": event.AuctionID,
				"bid_id":     event.BidID,
				"error":      err.Error(),
			})
			continue
		}
		utils.Debug("Dispatcher: bid event published", map[string]any{
			"publisher":  p.Name(),
			"event_id":   event.EventID,
			"auction_id": event.AuctionID,
		})
	}
}

// Enqueue queues event for delivery. Events enqueued after Close are dropped.
func (d *Dispatcher) Enqueue(event BidAcceptedEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		utils.Warn("Dispatcher: dropping event after close", map[string]any{"event_id": event.EventID})
		return
	}
	d.queue.In <- event
}

// Close stops accepting events, delivers what is queued, then closes the publishers
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue.In)
	d.mu.Unlock()

	d.wg.Wait()
	for _, p := range d.publishers {
		if err := p.Close(); err != nil {
			utils.Warn("Dispatcher: failed to close publisher", map[string]any{"publisher": p.Name(), "error": err.Error()})
		}
	}
}
