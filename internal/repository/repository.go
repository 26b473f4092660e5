//go:generate mockgen -package=repository -destination=mock_repository.go -source=repository.go

package repository

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"vehicle-auction/internal/biddingerrors"
	model "vehicle-auction/internal/models"
)

// AuctionDB defines the auction and bid ledger storage interface
type AuctionDB interface {
	AddAuction(auction model.Auction) (model.Auction, error)
	GetAuction(auctionID string) (model.Auction, error)
	GetAuctionView(auctionID string) (model.Auction, *model.Bid, error)
	ListAuctions() ([]model.Auction, error)
	CommitBid(bid model.Bid, updated model.Auction) (model.Auction, error)
	GetBidsByAuction(auctionID string) ([]model.Bid, error)
	GetWinningBid(auctionID string) (model.Bid, error)
	GetAuctionsByBidder(bidderID string) ([]model.Auction, error)
	SetTimeLeft(auctionID, display string) error
	AdjustWatchers(auctionID string, delta int64) error
}

// ledger is the immutable per-auction state. A new value replaces the old one on every commit.
type ledger struct {
	auction model.Auction
	bids    []model.Bid
	winning int // index into bids, -1 before the first accepted bid
}

// auctionEntry holds the published ledger plus the advisory side fields
type auctionEntry struct {
	state    atomic.Pointer[ledger]
	watchers atomic.Int64
	timeLeft atomic.Value // string
}

func (e *auctionEntry) view() model.Auction {
	return e.viewOf(e.state.Load())
}

func (e *auctionEntry) viewOf(state *ledger) model.Auction {
	a := state.auction
	a.Watchers = e.watchers.Load()
	if s, ok := e.timeLeft.Load().(string); ok {
		a.CachedTimeLeft = s
	}
	return a
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB.
// Readers load the published ledger without locking; commits swap it atomically.
type MemoryRepo struct {
	mu       sync.RWMutex
	auctions map[string]*auctionEntry // key: auctionID
	order    []string                 // insertion order for listings

	biddersMu      sync.Mutex
	bidderAuctions map[string][]string // key: bidderID -> value: auctionIDs the bidder has bid on
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions:       make(map[string]*auctionEntry),
		bidderAuctions: make(map[string][]string),
	}
}

// AddAuction registers an auction. Ledger fields are reset so that the record starts as a
// projection of an empty ledger.
func (r *MemoryRepo) AddAuction(auction model.Auction) (model.Auction, error) {
	if strings.TrimSpace(auction.AuctionID) == "" {
		return model.Auction{}, fmt.Errorf("add auction: %w - empty auction ID", biddingerrors.ErrInvalidAuction)
	}

	auction.CurrentBid = auction.StartingBid
	auction.BidCount = 0
	auction.ReserveMet = auction.ReservePrice != nil && auction.StartingBid >= *auction.ReservePrice
	auction.EndDate = auction.EndDate.UTC()
	auction.CachedTimeLeft = ""

	entry := &auctionEntry{}
	entry.watchers.Store(auction.Watchers)
	auction.Watchers = 0
	entry.state.Store(&ledger{auction: auction, winning: -1})

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.auctions[auction.AuctionID]; exists {
		return model.Auction{}, fmt.Errorf("add auction %s: %w", auction.AuctionID, biddingerrors.ErrAuctionExists)
	}
	r.auctions[auction.AuctionID] = entry
	r.order = append(r.order, auction.AuctionID)

	return entry.view(), nil
}

func (r *MemoryRepo) entry(auctionID string) (*auctionEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.auctions[auctionID]
	return e, ok
}

// GetAuction returns a consistent snapshot of an auction record
func (r *MemoryRepo) GetAuction(auctionID string) (model.Auction, error) {
	e, ok := r.entry(auctionID)
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return e.view(), nil
}

// GetAuctionView returns an auction record together with its winning bid, both taken from the
// same published ledger. The bid is nil before the first accepted bid.
func (r *MemoryRepo) GetAuctionView(auctionID string) (model.Auction, *model.Bid, error) {
	e, ok := r.entry(auctionID)
	if !ok {
		return model.Auction{}, nil, fmt.Errorf("get auction view %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}

	state := e.state.Load()
	auction := e.viewOf(state)
	if state.winning < 0 {
		return auction, nil, nil
	}
	winning := state.bids[state.winning]
	return auction, &winning, nil
}

// ListAuctions returns snapshots of all auctions in registration order
func (r *MemoryRepo) ListAuctions() ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(r.order))
	for _, id := range r.order {
		auctions = append(auctions, r.auctions[id].view())
	}
	return auctions, nil
}

// CommitBid appends bid to the auction's ledger and publishes updated as the new record in one
// atomic step. The previous winning bid is flipped to not-winning. Commits that would break the
// ledger projection (bid count, current bid, sticky reserve) are refused with ErrLedgerConflict.
func (r *MemoryRepo) CommitBid(bid model.Bid, updated model.Auction) (model.Auction, error) {
	e, ok := r.entry(bid.AuctionID)
	if !ok {
		return model.Auction{}, fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionNotFound)
	}

	cur := e.state.Load()
	if err := checkProjection(cur, bid, updated); err != nil {
		return model.Auction{}, fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, err)
	}

	bids := make([]model.Bid, len(cur.bids), len(cur.bids)+1)
	copy(bids, cur.bids)
	if cur.winning >= 0 {
		bids[cur.winning].IsWinning = false
	}
	bid.IsWinning = true
	bids = append(bids, bid)

	updated.Watchers = 0
	updated.CachedTimeLeft = ""
	next := &ledger{auction: updated, bids: bids, winning: len(bids) - 1}
	if !e.state.CompareAndSwap(cur, next) {
		return model.Auction{}, fmt.Errorf("commit bid for auction %s: %w - concurrent commit", bid.AuctionID, biddingerrors.ErrLedgerConflict)
	}

	r.indexBidder(bid.BidderID, bid.AuctionID)
	return e.viewOf(next), nil
}

func checkProjection(cur *ledger, bid model.Bid, updated model.Auction) error {
	prev := cur.auction
	switch {
	case updated.AuctionID != prev.AuctionID:
		return fmt.Errorf("%w - auction ID changed", biddingerrors.ErrLedgerConflict)
	case updated.BidCount != len(cur.bids)+1:
		return fmt.Errorf("%w - bid count %d does not follow ledger length %d", biddingerrors.ErrLedgerConflict, updated.BidCount, len(cur.bids))
	case updated.CurrentBid != bid.Amount:
		return fmt.Errorf("%w - current bid %d does not match bid amount %d", biddingerrors.ErrLedgerConflict, updated.CurrentBid, bid.Amount)
	case bid.Amount <= prev.CurrentBid:
		return fmt.Errorf("%w - bid amount %d does not exceed current bid %d", biddingerrors.ErrLedgerConflict, bid.Amount, prev.CurrentBid)
	case prev.ReserveMet && !updated.ReserveMet:
		return fmt.Errorf("%w - reserve flag cannot be cleared", biddingerrors.ErrLedgerConflict)
	case !updated.EndDate.Equal(prev.EndDate) || updated.StartingBid != prev.StartingBid:
		return fmt.Errorf("%w - immutable fields changed", biddingerrors.ErrLedgerConflict)
	}
	return nil
}

func (r *MemoryRepo) indexBidder(bidderID, auctionID string) {
	r.biddersMu.Lock()
	defer r.biddersMu.Unlock()

	for _, id := range r.bidderAuctions[bidderID] {
		if id == auctionID {
			return
		}
	}
	r.bidderAuctions[bidderID] = append(r.bidderAuctions[bidderID], auctionID)
}

// GetBidsByAuction returns the ledger of an auction in acceptance order
func (r *MemoryRepo) GetBidsByAuction(auctionID string) ([]model.Bid, error) {
	e, ok := r.entry(auctionID)
	if !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}

	bids := e.state.Load().bids
	if len(bids) == 0 {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrNoBids)
	}
	return append([]model.Bid(nil), bids...), nil
}

// GetWinningBid returns the bid currently flagged as winning
func (r *MemoryRepo) GetWinningBid(auctionID string) (model.Bid, error) {
	e, ok := r.entry(auctionID)
	if !ok {
		return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}

	state := e.state.Load()
	if state.winning < 0 {
		return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, biddingerrors.ErrNoBids)
	}
	return state.bids[state.winning], nil
}

// GetAuctionsByBidder returns all auctions a bidder has an accepted bid on
func (r *MemoryRepo) GetAuctionsByBidder(bidderID string) ([]model.Auction, error) {
	r.biddersMu.Lock()
	auctionIDs := append([]string(nil), r.bidderAuctions[bidderID]...)
	r.biddersMu.Unlock()

	if len(auctionIDs) == 0 {
		return nil, fmt.Errorf("get auctions for bidder %s: %w", bidderID, biddingerrors.ErrBidderNoBids)
	}

	auctions := make([]model.Auction, 0, len(auctionIDs))
	for _, id := range auctionIDs {
		if e, exists := r.entry(id); exists {
			auctions = append(auctions, e.view())
		}
	}
	return auctions, nil
}

// SetTimeLeft caches the display string computed by the countdown publisher.
// It never touches the ledger state.
func (r *MemoryRepo) SetTimeLeft(auctionID, display string) error {
	e, ok := r.entry(auctionID)
	if !ok {
		return fmt.Errorf("set time left for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	e.timeLeft.Store(display)
	return nil
}

// AdjustWatchers changes the advisory watcher counter, never below zero
func (r *MemoryRepo) AdjustWatchers(auctionID string, delta int64) error {
	e, ok := r.entry(auctionID)
	if !ok {
		return fmt.Errorf("adjust watchers for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	if e.watchers.Add(delta) < 0 {
		e.watchers.Store(0)
	}
	return nil
}
