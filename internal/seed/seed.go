// Package seed registers the demo vehicle auctions used for local runs and API tests.
package seed

import (
	"context"
	"fmt"
	"time"

	model "vehicle-auction/internal/models"
)

// Registrar is the part of the bidding service the seed data is replayed through
type Registrar interface {
	CreateAuction(auction model.Auction) (model.AuctionSnapshot, error)
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount int64, idempotencyKey string) (model.Bid, error)
}

type seedBid struct {
	auctionID string
	bidderID  string
	amount    int64
}

func price(v int64) *int64 { return &v }

// Auctions returns the demo auctions with end dates relative to now
func Auctions(now time.Time) []model.Auction {
	day := 24 * time.Hour
	return []model.Auction{
		{
			AuctionID: "auction-1", Title: "2019 Mercedes-Benz C300 AMG Line", Brand: "Mercedes-Benz", Model: "C300", Year: 2019,
			BodyType: "Sedan", Location: "Lagos, Nigeria", SellerID: "seller-1", AuctionType: "live",
			StartingBid: 15000000, ReservePrice: price(20000000), Watchers: 156,
			EndDate: now.Add(2*day + 14*time.Hour),
		},
		{
			AuctionID: "auction-2", Title: "2020 Toyota Camry XLE", Brand: "Toyota", Model: "Camry", Year: 2020,
			BodyType: "Sedan", Location: "Abuja, Nigeria", SellerID: "seller-2", AuctionType: "timed",
			StartingBid: 10000000, ReservePrice: price(14000000), Watchers: 89,
			EndDate: now.Add(day + 8*time.Hour),
		},
		{
			AuctionID: "auction-3", Title: "2018 BMW X5 xDrive35i", Brand: "BMW", Model: "X5", Year: 2018,
			BodyType: "SUV", Location: "Port Harcourt, Nigeria", SellerID: "seller-3", AuctionType: "live",
			StartingBid: 18000000, ReservePrice: price(25000000), Watchers: 203,
			EndDate: now.Add(4*time.Hour + 22*time.Minute),
		},
		{
			AuctionID: "auction-4", Title: "2021 Honda Accord Sport", Brand: "Honda", Model: "Accord", Year: 2021,
			BodyType: "Sedan", Location: "Kano, Nigeria", SellerID: "seller-4", AuctionType: "timed",
			StartingBid: 12000000, ReservePrice: price(16000000), Watchers: 67,
			EndDate: now.Add(3*day + 2*time.Hour),
		},
		{
			AuctionID: "auction-5", Title: "2017 Lexus RX 350 F Sport", Brand: "Lexus", Model: "RX 350", Year: 2017,
			BodyType: "SUV", Location: "Ibadan, Nigeria", SellerID: "seller-5", AuctionType: "live",
			StartingBid: 16000000, ReservePrice: price(22000000), Watchers: 134,
			EndDate: now.Add(6*day + 12*time.Hour),
		},
		{
			AuctionID: "auction-6", Title: "2019 Ford Mustang GT", Brand: "Ford", Model: "Mustang", Year: 2019,
			BodyType: "Coupe", Location: "Lagos, Nigeria", SellerID: "seller-1", AuctionType: "live",
			StartingBid: 20000000, ReservePrice: price(28000000), Watchers: 298,
			EndDate: now.Add(12*time.Hour + 8*time.Minute),
		},
	}
}

// bids bring each demo auction to its listed current bid, oldest first
var bids = []seedBid{
	{auctionID: "auction-1", bidderID: "bidder-2", amount: 18200000},
	{auctionID: "auction-1", bidderID: "bidder-1", amount: 18500000},
	{auctionID: "auction-2", bidderID: "bidder-3", amount: 12800000},
	{auctionID: "auction-3", bidderID: "bidder-4", amount: 22000000},
	{auctionID: "auction-4", bidderID: "bidder-5", amount: 14500000},
	{auctionID: "auction-5", bidderID: "bidder-6", amount: 19800000},
	{auctionID: "auction-6", bidderID: "bidder-7", amount: 25000000},
}

// Load registers the demo auctions and replays their bids through r, so every record is a
// projection of its ledger.
func Load(ctx context.Context, r Registrar, now time.Time) error {
	for _, a := range Auctions(now) {
		if _, err := r.CreateAuction(a); err != nil {
			return fmt.Errorf("seed: create auction %s: %w", a.AuctionID, err)
		}
	}
	for i, b := range bids {
		key := fmt.Sprintf("seed-%d", i+1)
		if _, err := r.PlaceBid(ctx, b.auctionID, b.bidderID, b.amount, key); err != nil {
			return fmt.Errorf("seed: bid %d on %s: %w", b.amount, b.auctionID, err)
		}
	}
	return nil
}
