package bidding

import (
	"slices"
	"strings"

	"vehicle-auction/internal/models"

	"github.com/samber/lo"
)

// Listing sort orders
const (
	SortEndingSoon  = "ending-soon"
	SortHighestBid  = "highest-bid"
	SortMostWatched = "most-watched"
	SortNewest      = "newest"
)

// Listing categories
const (
	CategoryAll    = "all"
	CategoryLuxury = "luxury"
	CategorySports = "sports"
	CategorySUV    = "suv"
	CategorySedan  = "sedan"
)

var luxuryBrands = []string{"mercedes-benz", "bmw", "lexus"}

// ApplyFilter narrows snapshots by search text, category and derived status, then orders them.
// The input slice is not modified.
func ApplyFilter(snapshots []models.AuctionSnapshot, filter models.AuctionFilter) []models.AuctionSnapshot {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	category := strings.ToLower(strings.TrimSpace(filter.Category))

	result := lo.Filter(snapshots, func(s models.AuctionSnapshot, _ int) bool {
		return matchesSearch(s.Auction, search) &&
			matchesCategory(s.Auction, category) &&
			(filter.Status == "" || s.Status == filter.Status)
	})

	slices.SortStableFunc(result, compareBy(filter.SortBy))
	return result
}

func matchesSearch(a models.Auction, search string) bool {
	if search == "" {
		return true
	}
	fields := []string{a.Title, a.Brand, a.Model}
	return lo.SomeBy(fields, func(f string) bool {
		return strings.Contains(strings.ToLower(f), search)
	})
}

func matchesCategory(a models.Auction, category string) bool {
	switch category {
	case "", CategoryAll:
		return true
	case CategoryLuxury:
		return lo.Contains(luxuryBrands, strings.ToLower(a.Brand))
	case CategorySports:
		return strings.EqualFold(a.BodyType, "coupe")
	default:
		return strings.EqualFold(a.BodyType, category)
	}
}

func compareBy(sortBy string) func(a, b models.AuctionSnapshot) int {
	switch sortBy {
	case SortHighestBid:
		return func(a, b models.AuctionSnapshot) int { return cmpDesc(a.CurrentBid, b.CurrentBid) }
	case SortMostWatched:
		return func(a, b models.AuctionSnapshot) int { return cmpDesc(a.Watchers, b.Watchers) }
	case SortNewest:
		return func(a, b models.AuctionSnapshot) int { return cmpDesc(a.Year, b.Year) }
	default:
		return func(a, b models.AuctionSnapshot) int { return a.EndDate.Compare(b.EndDate) }
	}
}

func cmpDesc[T int | int64](a, b T) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
