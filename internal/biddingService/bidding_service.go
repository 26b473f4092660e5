package bidding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"vehicle-auction/internal/biddingerrors"
	"vehicle-auction/internal/broadcast"
	"vehicle-auction/internal/events"
	"vehicle-auction/internal/models"
	"vehicle-auction/internal/repository"
	"vehicle-auction/utils"
)

// SnapshotBroadcaster fans auction snapshots out to watchers, one topic per auction ID
type SnapshotBroadcaster interface {
	Subscribe(topic string) (<-chan models.AuctionSnapshot, error)
	Unsubscribe(topic string, ch <-chan models.AuctionSnapshot)
	Publish(topic string, snapshot models.AuctionSnapshot)
}

// EventSink receives accepted-bid events for delivery outside the core. Enqueue must not block.
type EventSink interface {
	Enqueue(event events.BidAcceptedEvent)
}

// Option configures a BiddingService
type Option func(*BiddingService)

// WithMinIncrement sets the global minimum bid increment
func WithMinIncrement(increment int64) Option {
	return func(s *BiddingService) {
		if increment > 0 {
			s.minIncrement = increment
		}
	}
}

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *BiddingService) {
		s.now = now
	}
}

// WithIdempotencyWindow sets how long accepted idempotency keys are remembered
func WithIdempotencyWindow(window time.Duration) Option {
	return func(s *BiddingService) {
		s.idempotency = newIdempotencyCache(window)
	}
}

// WithBroadcaster sets where snapshots are pushed after every accepted bid
func WithBroadcaster(b SnapshotBroadcaster) Option {
	return func(s *BiddingService) {
		s.broadcaster = b
	}
}

// WithEventSink sets where accepted-bid events are enqueued
func WithEventSink(sink EventSink) Option {
	return func(s *BiddingService) {
		s.sink = sink
	}
}

// BiddingService is the only writer of auction state. Bids on the same auction are strictly
// serialized; bids on different auctions proceed in parallel.
type BiddingService struct {
	repo         repository.AuctionDB
	minIncrement int64
	now          func() time.Time
	idempotency  *idempotencyCache
	broadcaster  SnapshotBroadcaster
	sink         EventSink

	// One entry per auction that has seen a bid. Auctions are never removed from the store, so
	// the map is bounded by the store itself.
	locksMu sync.Mutex
	locks   map[string]chan struct{} // key: auctionID -> one-slot semaphore
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, opts ...Option) *BiddingService {
	s := &BiddingService{
		repo:         repo,
		minIncrement: DefaultMinIncrement,
		now:          time.Now,
		idempotency:  newIdempotencyCache(DefaultIdempotencyWindow),
		broadcaster:  broadcast.NewHub[models.AuctionSnapshot](16),
		locks:        make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.broadcaster = NewSnapshotSequencer(s.broadcaster)
	return s
}

// Broadcaster returns the ordered broadcaster the service publishes snapshots through. Other
// publishers of auction snapshots, like the countdown, must use it to keep each stream monotonic.
func (s *BiddingService) Broadcaster() SnapshotBroadcaster {
	return s.broadcaster
}

// MinIncrement returns the global minimum bid increment
func (s *BiddingService) MinIncrement() int64 {
	return s.minIncrement
}

// acquire takes the serialization unit of an auction. It gives up only while waiting; a caller
// that got the unit must call release.
func (s *BiddingService) acquire(ctx context.Context, auctionID string) (func(), error) {
	s.locksMu.Lock()
	sem, ok := s.locks[auctionID]
	if !ok {
		sem = make(chan struct{}, 1)
		s.locks[auctionID] = sem
	}
	s.locksMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// PlaceBid validates and records a bid against the latest state of the auction.
// ctx only bounds the wait for the auction's serialization unit; once acquired the bid runs to
// completion. A non-empty idempotencyKey already accepted for the same auction and bidder
// returns the original bid without committing again.
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount int64, idempotencyKey string) (models.Bid, error) {
	if strings.TrimSpace(auctionID) == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}

	// unknown auctions never get a serialization unit
	if _, err := s.repo.GetAuction(auctionID); err != nil {
		return models.Bid{}, storeError("place bid", auctionID, err)
	}

	release, err := s.acquire(ctx, auctionID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: bid on auction %s not submitted: %w", auctionID, err)
	}
	defer release()

	return s.commitBid(auctionID, bidderID, amount, idempotencyKey)
}

// commitBid runs inside the auction's critical section
func (s *BiddingService) commitBid(auctionID, bidderID string, amount int64, idempotencyKey string) (models.Bid, error) {
	now := s.now().UTC()

	if bid, ok := s.idempotency.lookup(auctionID, bidderID, idempotencyKey, now); ok {
		_, winning, err := s.repo.GetAuctionView(auctionID)
		if err != nil {
			return models.Bid{}, storeError("replay bid", auctionID, err)
		}
		bid.IsWinning = winning != nil && winning.BidID == bid.BidID

		utils.Info("bid replayed", map[string]any{
			"auction_id": auctionID,
			"bidder_id":  bidderID,
			"bid_id":     bid.BidID,
			"is_winning": bid.IsWinning,
		})
		return bid, nil
	}

	current, err := s.repo.GetAuction(auctionID)
	if err != nil {
		return models.Bid{}, storeError("place bid", auctionID, err)
	}

	if err := ValidateBid(current, bidderID, amount, now, s.minIncrement); err != nil {
		utils.Info("bid rejected", map[string]any{
			"auction_id":  auctionID,
			"bidder_id":   bidderID,
			"amount":      amount,
			"current_bid": current.CurrentBid,
			"reason":      biddingerrors.Reason(err),
		})
		return models.Bid{}, fmt.Errorf("service: bid on auction %s rejected: %w", auctionID, err)
	}

	bid := models.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: now,
	}

	updated := current
	updated.CurrentBid = amount
	updated.BidCount++
	if current.ReservePrice != nil && amount >= *current.ReservePrice {
		updated.ReserveMet = true
	}

	committed, err := s.repo.CommitBid(bid, updated)
	if err != nil {
		return models.Bid{}, storeError("commit bid", auctionID, err)
	}
	bid.IsWinning = true

	s.idempotency.remember(bidderID, idempotencyKey, bid, now)
	s.broadcaster.Publish(auctionID, BuildSnapshot(committed, &bid, now))
	if s.sink != nil {
		s.sink.Enqueue(events.NewBidAcceptedEvent(bid, current, committed))
	}

	utils.Info("bid accepted", map[string]any{
		"auction_id":  auctionID,
		"bidder_id":   bidderID,
		"bid_id":      bid.BidID,
		"amount":      amount,
		"bid_count":   committed.BidCount,
		"reserve_met": committed.ReserveMet,
	})
	return bid, nil
}

// storeError keeps domain errors from the repository and turns everything else into
// ErrStoreUnavailable, which callers retry with the same idempotency key.
func storeError(op, auctionID string, err error) error {
	switch {
	case errors.Is(err, biddingerrors.ErrAuctionNotFound),
		errors.Is(err, biddingerrors.ErrAuctionExists),
		errors.Is(err, biddingerrors.ErrNoBids),
		errors.Is(err, biddingerrors.ErrBidderNoBids),
		errors.Is(err, biddingerrors.ErrInvalidAuction):
		return fmt.Errorf("service: %s for auction %s: %w", op, auctionID, err)
	default:
		return fmt.Errorf("service: %s for auction %s: %w: %w", op, auctionID, biddingerrors.ErrStoreUnavailable, err)
	}
}

// snapshotOf builds the snapshot of an auction at now from a single read of its ledger, so the
// record and its winning bid always belong to the same state.
func snapshotOf(repo repository.AuctionDB, auctionID string, now time.Time) (models.AuctionSnapshot, error) {
	auction, winning, err := repo.GetAuctionView(auctionID)
	if err != nil {
		return models.AuctionSnapshot{}, storeError("read auction", auctionID, err)
	}
	return BuildSnapshot(auction, winning, now), nil
}

// CreateAuction registers an auction supplied by the catalog. An empty ID is generated.
func (s *BiddingService) CreateAuction(auction models.Auction) (models.AuctionSnapshot, error) {
	if strings.TrimSpace(auction.AuctionID) == "" {
		auction.AuctionID = utils.GenerateID()
	}

	switch {
	case auction.StartingBid <= 0:
		return models.AuctionSnapshot{}, fmt.Errorf("service: %w - starting bid must be positive", biddingerrors.ErrInvalidAuction)
	case auction.ReservePrice != nil && *auction.ReservePrice <= 0:
		return models.AuctionSnapshot{}, fmt.Errorf("service: %w - reserve price must be positive", biddingerrors.ErrInvalidAuction)
	case auction.MinIncrement < 0:
		return models.AuctionSnapshot{}, fmt.Errorf("service: %w - negative minimum increment", biddingerrors.ErrInvalidAuction)
	case auction.EndDate.IsZero():
		return models.AuctionSnapshot{}, fmt.Errorf("service: %w - missing end date", biddingerrors.ErrInvalidAuction)
	}

	created, err := s.repo.AddAuction(auction)
	if err != nil {
		return models.AuctionSnapshot{}, storeError("create auction", auction.AuctionID, err)
	}

	utils.Info("auction created", map[string]any{
		"auction_id":   created.AuctionID,
		"starting_bid": created.StartingBid,
		"end_date":     created.EndDate,
	})
	return BuildSnapshot(created, nil, s.now().UTC()), nil
}

// FetchAuction returns a snapshot of an auction with its derived status and time remaining
func (s *BiddingService) FetchAuction(auctionID string) (models.AuctionSnapshot, error) {
	if strings.TrimSpace(auctionID) == "" {
		return models.AuctionSnapshot{}, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}

	return snapshotOf(s.repo, auctionID, s.now().UTC())
}

// ListAuctions returns snapshots of all auctions matching filter
func (s *BiddingService) ListAuctions(filter models.AuctionFilter) ([]models.AuctionSnapshot, error) {
	auctions, err := s.repo.ListAuctions()
	if err != nil {
		return nil, storeError("list auctions", "*", err)
	}

	now := s.now().UTC()
	snapshots := make([]models.AuctionSnapshot, 0, len(auctions))
	for _, a := range auctions {
		snap, err := snapshotOf(s.repo, a.AuctionID, now)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return ApplyFilter(snapshots, filter), nil
}

// WatchAuction streams snapshots of an auction, starting with the current one, until ctx is
// done. The auction's watcher counter is raised for the lifetime of the stream.
func (s *BiddingService) WatchAuction(ctx context.Context, auctionID string) (<-chan models.AuctionSnapshot, error) {
	if _, err := s.repo.GetAuction(auctionID); err != nil {
		return nil, storeError("watch auction", auctionID, err)
	}

	sub, err := s.broadcaster.Subscribe(auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: watch auction %s: %w", auctionID, err)
	}
	if err := s.repo.AdjustWatchers(auctionID, 1); err != nil {
		utils.Warn("failed to raise watcher count", map[string]any{"auction_id": auctionID, "error": err.Error()})
	}

	initial, err := s.FetchAuction(auctionID)
	if err != nil {
		s.stopWatching(auctionID, sub)
		return nil, err
	}

	out := make(chan models.AuctionSnapshot, 1)
	out <- initial

	go func() {
		defer close(out)
		defer s.stopWatching(auctionID, sub)

		// pushes queued before the initial read may be older than it
		delivered := initial.BidCount
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-sub:
				if !ok {
					return
				}
				if snap.BidCount < delivered {
					continue
				}
				delivered = snap.BidCount
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (s *BiddingService) stopWatching(auctionID string, sub <-chan models.AuctionSnapshot) {
	s.broadcaster.Unsubscribe(auctionID, sub)
	if err := s.repo.AdjustWatchers(auctionID, -1); err != nil {
		utils.Warn("failed to lower watcher count", map[string]any{"auction_id": auctionID, "error": err.Error()})
	}
}

// GetBidsForAuction returns the bid ledger of an auction in acceptance order
func (s *BiddingService) GetBidsForAuction(auctionID string) ([]models.Bid, error) {
	if strings.TrimSpace(auctionID) == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}

	bids, err := s.repo.GetBidsByAuction(auctionID)
	if err != nil {
		return nil, storeError("get bids", auctionID, err)
	}
	return bids, nil
}

// GetWinningBid returns the currently winning bid of an auction
func (s *BiddingService) GetWinningBid(auctionID string) (models.Bid, error) {
	if strings.TrimSpace(auctionID) == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}

	winning, err := s.repo.GetWinningBid(auctionID)
	if err != nil {
		return models.Bid{}, storeError("get winning bid", auctionID, err)
	}
	return winning, nil
}

// GetAuctionsByBidder returns snapshots of all auctions a bidder has an accepted bid on
func (s *BiddingService) GetAuctionsByBidder(bidderID string) ([]models.AuctionSnapshot, error) {
	if strings.TrimSpace(bidderID) == "" {
		return nil, fmt.Errorf("service: %w - empty bidder ID", biddingerrors.ErrInvalidBidder)
	}

	auctions, err := s.repo.GetAuctionsByBidder(bidderID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get auctions for bidder %s: %w", bidderID, err)
	}

	now := s.now().UTC()
	snapshots := make([]models.AuctionSnapshot, 0, len(auctions))
	for _, a := range auctions {
		snap, err := snapshotOf(s.repo, a.AuctionID, now)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}
