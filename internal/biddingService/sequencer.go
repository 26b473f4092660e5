package bidding

import (
	"sync"

	"vehicle-auction/internal/models"
)

// SnapshotSequencer keeps every auction's published stream monotonic. A snapshot built from an
// older ledger than one already published for the same auction is dropped, so watchers never see
// current_bid drop or reserve_met clear.
type SnapshotSequencer struct {
	next SnapshotBroadcaster

	mu   sync.Mutex
	last map[string]int // key: auctionID -> bid count of the latest published snapshot
}

// NewSnapshotSequencer wraps b. Wrapping a sequencer returns it unchanged, so publishers that share
// a broadcaster also share its ordering.
func NewSnapshotSequencer(b SnapshotBroadcaster) *SnapshotSequencer {
	if seq, ok := b.(*SnapshotSequencer); ok {
		return seq
	}
	return &SnapshotSequencer{
		next: b,
		last: make(map[string]int),
	}
}

func (s *SnapshotSequencer) Subscribe(topic string) (<-chan models.AuctionSnapshot, error) {
	return s.next.Subscribe(topic)
}

func (s *SnapshotSequencer) Unsubscribe(topic string, ch <-chan models.AuctionSnapshot) {
	s.next.Unsubscribe(topic, ch)
}

// Publish forwards snapshot unless a newer ledger state of the auction was already published.
// Snapshots of the same ledger state, e.g. successive countdown ticks, all pass.
func (s *SnapshotSequencer) Publish(topic string, snapshot models.AuctionSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.last[topic]; ok && snapshot.BidCount < last {
		return
	}
	s.last[topic] = snapshot.BidCount
	s.next.Publish(topic, snapshot)
}
