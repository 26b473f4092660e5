package helpers

import (
	"time"

	model "vehicle-auction/internal/models"
	"vehicle-auction/utils"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	AuctionID      string `json:"auction_id" binding:"required"`
	BidderID       string `json:"bidder_id"`
	Amount         *int64 `json:"amount" binding:"required"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type CreateAuctionRequest struct {
	AuctionID    string    `json:"auction_id"`
	Title        string    `json:"title" binding:"required"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	Year         int       `json:"year"`
	BodyType     string    `json:"body_type"`
	Location     string    `json:"location"`
	SellerID     string    `json:"seller_id"`
	AuctionType  string    `json:"auction_type"`
	StartingBid  int64     `json:"starting_bid" binding:"required,gt=0"`
	ReservePrice *int64    `json:"reserve_price,omitempty" binding:"omitempty,gt=0"`
	MinIncrement int64     `json:"min_increment" binding:"gte=0"`
	EndDate      time.Time `json:"end_date" binding:"required"`
}

// ToModel converts the request into an auction record
func (r CreateAuctionRequest) ToModel() model.Auction {
	return model.Auction{
		AuctionID:    r.AuctionID,
		Title:        r.Title,
		Brand:        r.Brand,
		Model:        r.Model,
		Year:         r.Year,
		BodyType:     r.BodyType,
		Location:     r.Location,
		SellerID:     r.SellerID,
		AuctionType:  r.AuctionType,
		StartingBid:  r.StartingBid,
		ReservePrice: r.ReservePrice,
		MinIncrement: r.MinIncrement,
		EndDate:      r.EndDate,
	}
}

type BidResponse struct {
	BidID         string `json:"bid_id"`
	AuctionID     string `json:"auction_id"`
	BidderID      string `json:"bidder_id"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	IsWinning     bool   `json:"is_winning"`
	CreatedAt     string `json:"created_at"`
}

func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:         bid.BidID,
		AuctionID:     bid.AuctionID,
		BidderID:      bid.BidderID,
		Amount:        bid.Amount,
		AmountDisplay: utils.FormatMinorUnits(bid.Amount),
		IsWinning:     bid.IsWinning,
		CreatedAt:     bid.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type AuctionResponse struct {
	AuctionID         string              `json:"auction_id"`
	Title             string              `json:"title"`
	Brand             string              `json:"brand"`
	Model             string              `json:"model"`
	Year              int                 `json:"year"`
	BodyType          string              `json:"body_type"`
	Location          string              `json:"location"`
	SellerID          string              `json:"seller_id"`
	AuctionType       string              `json:"auction_type"`
	StartingBid       int64               `json:"starting_bid"`
	ReservePrice      *int64              `json:"reserve_price,omitempty"`
	CurrentBid        int64               `json:"current_bid"`
	CurrentBidDisplay string              `json:"current_bid_display"`
	BidCount          int                 `json:"bid_count"`
	ReserveMet        bool                `json:"reserve_met"`
	Watchers          int64               `json:"watchers"`
	EndDate           string              `json:"end_date"`
	Status            model.AuctionStatus `json:"status"`
	TimeRemainingMs   int64               `json:"time_remaining_ms"`
	TimeLeft          string              `json:"time_left"`
	WinningBid        *BidResponse        `json:"winning_bid,omitempty"`
	ObservedAt        string              `json:"observed_at"`
}

func NewAuctionResponse(snap model.AuctionSnapshot) AuctionResponse {
	resp := AuctionResponse{
		AuctionID:         snap.AuctionID,
		Title:             snap.Title,
		Brand:             snap.Brand,
		Model:             snap.Model,
		Year:              snap.Year,
		BodyType:          snap.BodyType,
		Location:          snap.Location,
		SellerID:          snap.SellerID,
		AuctionType:       snap.AuctionType,
		StartingBid:       snap.StartingBid,
		ReservePrice:      snap.ReservePrice,
		CurrentBid:        snap.CurrentBid,
		CurrentBidDisplay: utils.FormatMinorUnits(snap.CurrentBid),
		BidCount:          snap.BidCount,
		ReserveMet:        snap.ReserveMet,
		Watchers:          snap.Watchers,
		EndDate:           snap.EndDate.UTC().Format(time.RFC3339),
		Status:            snap.Status,
		TimeRemainingMs:   snap.TimeRemainingMs,
		TimeLeft:          snap.TimeLeft,
		ObservedAt:        snap.ObservedAt.UTC().Format(time.RFC3339),
	}
	if snap.WinningBid != nil {
		winning := NewBidResponse(*snap.WinningBid)
		resp.WinningBid = &winning
	}
	return resp
}

func NewAuctionResponses(snaps []model.AuctionSnapshot) []AuctionResponse {
	resp := make([]AuctionResponse, 0, len(snaps))
	for _, s := range snaps {
		resp = append(resp, NewAuctionResponse(s))
	}
	return resp
}
