// Package events publishes bid-acceptance events to the collaborators outside the auction core.
package events

import (
	"time"

	model "vehicle-auction/internal/models"
	"vehicle-auction/utils"
)

// BidAcceptedEvent is published after a bid has been committed to an auction's ledger.
// It carries enough of the new head state that consumers need not query the core.
type BidAcceptedEvent struct {
	EventID     string    `json:"event_id" msgpack:"event_id"`
	AuctionID   string    `json:"auction_id" msgpack:"auction_id"`
	BidID       string    `json:"bid_id" msgpack:"bid_id"`
	BidderID    string    `json:"bidder_id" msgpack:"bidder_id"`
	Amount      int64     `json:"amount" msgpack:"amount"`
	PreviousBid int64     `json:"previous_bid" msgpack:"previous_bid"`
	BidCount    int       `json:"bid_count" msgpack:"bid_count"`
	ReserveMet  bool      `json:"reserve_met" msgpack:"reserve_met"`
	AcceptedAt  time.Time `json:"accepted_at" msgpack:"accepted_at"`
}

// NewBidAcceptedEvent builds the event for bid, given the record before and after the commit
func NewBidAcceptedEvent(bid model.Bid, before, after model.Auction) BidAcceptedEvent {
	return BidAcceptedEvent{
		EventID:     utils.GenerateID(),
		AuctionID:   bid.AuctionID,
		BidID:       bid.BidID,
		BidderID:    bid.BidderID,
		Amount:      bid.Amount,
		PreviousBid: before.CurrentBid,
		BidCount:    after.BidCount,
		ReserveMet:  after.ReserveMet,
		AcceptedAt:  bid.CreatedAt.UTC(),
	}
}
