package bidding

import (
	"fmt"
	"time"

	"vehicle-auction/internal/models"
)

// EndingSoonWindow is how close to its end an open auction is classified as ending soon
const EndingSoonWindow = time.Hour

// ResolveStatus derives the display status of an auction. Nothing is stored: the same inputs
// always give the same status, and time pressure outranks reserve state.
func ResolveStatus(now, endDate time.Time, reservePrice *int64, reserveMet bool) models.AuctionStatus {
	remaining := endDate.Sub(now)
	switch {
	case remaining <= 0:
		return models.StatusEnded
	case remaining <= EndingSoonWindow:
		return models.StatusEndingSoon
	case reserveMet:
		return models.StatusReserveMet
	case reservePrice == nil:
		return models.StatusNoReserve
	default:
		return models.StatusActive
	}
}

// FormatTimeRemaining renders d as "Xd Yh Zm", "Yh Zm" or "Zm", and "Ended" once d <= 0.
// Partial minutes are truncated.
func FormatTimeRemaining(d time.Duration) string {
	if d <= 0 {
		return "Ended"
	}

	days := int64(d / (24 * time.Hour))
	hours := int64(d/time.Hour) % 24
	minutes := int64(d/time.Minute) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// BuildSnapshot attaches the derived fields observed at now to an auction record
func BuildSnapshot(auction models.Auction, winning *models.Bid, now time.Time) models.AuctionSnapshot {
	remaining := auction.EndDate.Sub(now)
	if remaining < 0 {
		remaining = 0
	}

	return models.AuctionSnapshot{
		Auction:         auction,
		Status:          ResolveStatus(now, auction.EndDate, auction.ReservePrice, auction.ReserveMet),
		TimeRemainingMs: remaining.Milliseconds(),
		TimeLeft:        FormatTimeRemaining(remaining),
		WinningBid:      winning,
		ObservedAt:      now.UTC(),
	}
}
