package bidding

import (
	"sync"
	"time"

	"vehicle-auction/internal/models"
)

// DefaultIdempotencyWindow is how long an accepted idempotency key is remembered
const DefaultIdempotencyWindow = 10 * time.Minute

type acceptedBid struct {
	bid        models.Bid
	acceptedAt time.Time
}

// idempotencyCache remembers accepted bids by client-supplied key so that a retried submission
// returns the original bid instead of committing a second one.
type idempotencyCache struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]acceptedBid // key: auctionID|bidderID|idempotencyKey
}

func newIdempotencyCache(window time.Duration) *idempotencyCache {
	if window <= 0 {
		window = DefaultIdempotencyWindow
	}
	return &idempotencyCache{
		window:  window,
		entries: make(map[string]acceptedBid),
	}
}

func cacheKey(auctionID, bidderID, key string) string {
	return auctionID + "|" + bidderID + "|" + key
}

// lookup returns the bid accepted under key if it is still inside the window
func (c *idempotencyCache) lookup(auctionID, bidderID, key string, now time.Time) (models.Bid, bool) {
	if key == "" {
		return models.Bid{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[cacheKey(auctionID, bidderID, key)]
	if !ok || now.Sub(entry.acceptedAt) > c.window {
		return models.Bid{}, false
	}
	return entry.bid, true
}

// remember stores an accepted bid and evicts expired entries
func (c *idempotencyCache) remember(bidderID, key string, bid models.Bid, now time.Time) {
	if key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, entry := range c.entries {
		if now.Sub(entry.acceptedAt) > c.window {
			delete(c.entries, k)
		}
	}
	c.entries[cacheKey(bid.AuctionID, bidderID, key)] = acceptedBid{bid: bid, acceptedAt: now}
}

func (c *idempotencyCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
