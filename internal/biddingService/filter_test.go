package bidding

import (
	"testing"
	"time"

	"vehicle-auction/internal/models"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func listingFixture(now time.Time) []models.AuctionSnapshot {
	auctions := []models.Auction{
		{AuctionID: "a1", Title: "2023 Mercedes-Benz G-Class AMG G63", Brand: "Mercedes-Benz", Model: "G-Class", Year: 2023, BodyType: "SUV", CurrentBid: 18500000, Watchers: 127, EndDate: now.Add(2 * time.Hour)},
		{AuctionID: "a2", Title: "2022 BMW M4 Competition", Brand: "BMW", Model: "M4", Year: 2022, BodyType: "Coupe", CurrentBid: 12800000, Watchers: 89, EndDate: now.Add(30 * time.Minute)},
		{AuctionID: "a3", Title: "2021 Toyota Camry Hybrid", Brand: "Toyota", Model: "Camry", Year: 2021, BodyType: "Sedan", CurrentBid: 4200000, Watchers: 34, EndDate: now.Add(5 * time.Hour)},
		{AuctionID: "a4", Title: "2024 Lexus LX 600", Brand: "Lexus", Model: "LX", Year: 2024, BodyType: "SUV", CurrentBid: 21000000, Watchers: 156, EndDate: now.Add(26 * time.Hour)},
	}
	return lo.Map(auctions, func(a models.Auction, _ int) models.AuctionSnapshot {
		return BuildSnapshot(a, nil, now)
	})
}

func ids(snaps []models.AuctionSnapshot) []string {
	return lo.Map(snaps, func(s models.AuctionSnapshot, _ int) string { return s.AuctionID })
}

func TestApplyFilter(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixture := listingFixture(now)

	tests := []struct {
		name     string
		filter   models.AuctionFilter
		expected []string
	}{
		{name: "default_sort_ending_soon", filter: models.AuctionFilter{}, expected: []string{"a2", "a1", "a3", "a4"}},
		{name: "search_is_case_insensitive", filter: models.AuctionFilter{Search: "bmw"}, expected: []string{"a2"}},
		{name: "search_model", filter: models.AuctionFilter{Search: "camry"}, expected: []string{"a3"}},
		{name: "luxury", filter: models.AuctionFilter{Category: "luxury", SortBy: SortHighestBid}, expected: []string{"a4", "a1", "a2"}},
		{name: "sports", filter: models.AuctionFilter{Category: "sports"}, expected: []string{"a2"}},
		{name: "suv_most_watched", filter: models.AuctionFilter{Category: "suv", SortBy: SortMostWatched}, expected: []string{"a4", "a1"}},
		{name: "sedan", filter: models.AuctionFilter{Category: "sedan"}, expected: []string{"a3"}},
		{name: "all_newest", filter: models.AuctionFilter{Category: "all", SortBy: SortNewest}, expected: []string{"a4", "a1", "a2", "a3"}},
		{name: "status", filter: models.AuctionFilter{Status: models.StatusEndingSoon}, expected: []string{"a2"}},
		{name: "no_match", filter: models.AuctionFilter{Search: "ferrari"}, expected: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, ids(ApplyFilter(fixture, tc.filter)))
		})
	}

	require.Equal(t, []string{"a1", "a2", "a3", "a4"}, ids(fixture), "input must not be reordered")
}
