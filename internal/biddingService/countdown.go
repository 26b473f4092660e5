package bidding

import (
	"context"
	"time"

	"vehicle-auction/internal/models"
	"vehicle-auction/internal/repository"
	"vehicle-auction/utils"
)

// DefaultCountdownInterval is the period of the countdown publisher
const DefaultCountdownInterval = time.Minute

// CountdownPublisher periodically recomputes time remaining and status for open auctions and
// pushes a snapshot of each to its watchers. It only reads published records and never waits
// on a bid in flight.
type CountdownPublisher struct {
	repo        repository.AuctionDB
	broadcaster SnapshotBroadcaster
	interval    time.Duration
}

// NewCountdownPublisher creates a publisher ticking every interval. Pass the bidding service's
// Broadcaster so ticks and bids share one ordering per auction.
func NewCountdownPublisher(repo repository.AuctionDB, broadcaster SnapshotBroadcaster, interval time.Duration) *CountdownPublisher {
	if interval <= 0 {
		interval = DefaultCountdownInterval
	}
	return &CountdownPublisher{
		repo:        repo,
		broadcaster: NewSnapshotSequencer(broadcaster),
		interval:    interval,
	}
}

// Tick publishes a snapshot for every auction that is open at now or ended within the last
// interval, so each auction gets a final "Ended" notification. The result depends only on now
// and the stored records. The only write is the advisory display string.
func (p *CountdownPublisher) Tick(now time.Time) ([]models.AuctionSnapshot, error) {
	auctions, err := p.repo.ListAuctions()
	if err != nil {
		return nil, storeError("countdown", "*", err)
	}

	now = now.UTC()
	published := make([]models.AuctionSnapshot, 0, len(auctions))
	for _, a := range auctions {
		if !now.Before(a.EndDate.Add(p.interval)) {
			continue
		}

		snap, err := snapshotOf(p.repo, a.AuctionID, now)
		if err != nil {
			utils.Warn("countdown snapshot failed", map[string]any{"auction_id": a.AuctionID, "error": err.Error()})
			continue
		}

		if err := p.repo.SetTimeLeft(a.AuctionID, snap.TimeLeft); err != nil {
			utils.Warn("failed to cache time left", map[string]any{"auction_id": a.AuctionID, "error": err.Error()})
		}
		snap.CachedTimeLeft = snap.TimeLeft

		p.broadcaster.Publish(a.AuctionID, snap)
		published = append(published, snap)
	}
	return published, nil
}

// Run ticks until ctx is done
func (p *CountdownPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	utils.Info("countdown publisher started", map[string]any{"interval": p.interval.String()})
	for {
		select {
		case <-ctx.Done():
			utils.Info("countdown publisher stopped", nil)
			return
		case now := <-ticker.C:
			snaps, err := p.Tick(now)
			if err != nil {
				utils.Error("countdown tick failed", map[string]any{"error": err.Error()})
				continue
			}
			utils.Debug("countdown tick", map[string]any{"auctions": len(snaps)})
		}
	}
}
