package bidding

import (
	"testing"
	"time"

	"vehicle-auction/internal/models"

	"github.com/stretchr/testify/require"
)

func TestResolveStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	reserve := int64(20000000)

	tests := []struct {
		name         string
		endDate      time.Time
		reservePrice *int64
		reserveMet   bool
		expected     models.AuctionStatus
	}{
		{name: "ended_at_end_date", endDate: now, reservePrice: &reserve, expected: models.StatusEnded},
		{name: "ended_in_past", endDate: now.Add(-time.Minute), reserveMet: true, reservePrice: &reserve, expected: models.StatusEnded},
		{name: "ending_soon_overrides_reserve_met", endDate: now.Add(45 * time.Minute), reservePrice: &reserve, reserveMet: true, expected: models.StatusEndingSoon},
		{name: "ending_soon_at_one_hour", endDate: now.Add(time.Hour), expected: models.StatusEndingSoon},
		{name: "reserve_met", endDate: now.Add(time.Hour + time.Second), reservePrice: &reserve, reserveMet: true, expected: models.StatusReserveMet},
		{name: "no_reserve", endDate: now.Add(3 * time.Hour), expected: models.StatusNoReserve},
		{name: "active_reserve_not_met", endDate: now.Add(3 * time.Hour), reservePrice: &reserve, expected: models.StatusActive},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			first := ResolveStatus(now, tc.endDate, tc.reservePrice, tc.reserveMet)
			second := ResolveStatus(now, tc.endDate, tc.reservePrice, tc.reserveMet)
			require.Equal(t, tc.expected, first)
			require.Equal(t, first, second)
		})
	}
}

func TestFormatTimeRemaining(t *testing.T) {
	tests := []struct {
		in       time.Duration
		expected string
	}{
		{in: -time.Minute, expected: "Ended"},
		{in: 0, expected: "Ended"},
		{in: 30 * time.Second, expected: "0m"},
		{in: 45 * time.Minute, expected: "45m"},
		{in: 2*time.Hour + 5*time.Minute + 59*time.Second, expected: "2h 5m"},
		{in: 24 * time.Hour, expected: "1d 0h 0m"},
		{in: 2*24*time.Hour + 3*time.Hour + 4*time.Minute, expected: "2d 3h 4m"},
	}

	for _, tc := range tests {
		t.Run(tc.in.String(), func(t *testing.T) {
			require.Equal(t, tc.expected, FormatTimeRemaining(tc.in))
		})
	}
}

func TestBuildSnapshot(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	auction := models.Auction{
		AuctionID:  "auction-1",
		CurrentBid: 18500000,
		EndDate:    now.Add(2*time.Hour + 30*time.Minute),
	}
	winning := &models.Bid{BidID: "bid-1", Amount: 18500000, IsWinning: true}

	snap := BuildSnapshot(auction, winning, now)
	require.Equal(t, models.StatusNoReserve, snap.Status)
	require.Equal(t, (2*time.Hour + 30*time.Minute).Milliseconds(), snap.TimeRemainingMs)
	require.Equal(t, "2h 30m", snap.TimeLeft)
	require.Equal(t, winning, snap.WinningBid)
	require.Equal(t, now, snap.ObservedAt)

	ended := BuildSnapshot(auction, nil, now.Add(3*time.Hour))
	require.Equal(t, models.StatusEnded, ended.Status)
	require.Zero(t, ended.TimeRemainingMs)
	require.Equal(t, "Ended", ended.TimeLeft)
}
