package bidding

import (
	"fmt"
	"strings"
	"time"

	"vehicle-auction/internal/biddingerrors"
	"vehicle-auction/internal/models"
)

// DefaultMinIncrement is the smallest step, in minor units, by which a bid must exceed the current bid
const DefaultMinIncrement int64 = 100000

// ValidateBid checks a proposed bid against an auction snapshot. It has no side effects, so the
// result is only advisory when the snapshot may already be stale.
// A positive auction.MinIncrement overrides minIncrement.
func ValidateBid(auction models.Auction, bidderID string, amount int64, now time.Time, minIncrement int64) error {
	if !now.Before(auction.EndDate) {
		return fmt.Errorf("%w - auction %s ended at %s", biddingerrors.ErrAuctionEnded, auction.AuctionID, auction.EndDate.Format(time.RFC3339))
	}

	increment := effectiveIncrement(auction, minIncrement)
	if minimum := auction.CurrentBid + increment; amount < minimum {
		return fmt.Errorf("%w - minimum acceptable bid is %d", biddingerrors.ErrBidTooLow, minimum)
	}

	if strings.TrimSpace(bidderID) == "" {
		return fmt.Errorf("%w - empty bidder ID", biddingerrors.ErrInvalidBidder)
	}

	return nil
}

func effectiveIncrement(auction models.Auction, fallback int64) int64 {
	if auction.MinIncrement > 0 {
		return auction.MinIncrement
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultMinIncrement
}
