package models

import "time"

// AuctionStatus is the display classification derived from time and reserve state
type AuctionStatus string

const (
	StatusEndingSoon AuctionStatus = "ending-soon"
	StatusReserveMet AuctionStatus = "reserve-met"
	StatusNoReserve  AuctionStatus = "no-reserve"
	StatusActive     AuctionStatus = "active"
	StatusEnded      AuctionStatus = "ended"
)

// Auction represents a time-boxed auction over a vehicle listing.
// Amounts are minor currency units.
type Auction struct {
	AuctionID    string    `json:"auction_id"`
	Title        string    `json:"title"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	Year         int       `json:"year"`
	BodyType     string    `json:"body_type"`
	Location     string    `json:"location"`
	SellerID     string    `json:"seller_id"`
	AuctionType  string    `json:"auction_type"`
	StartingBid  int64     `json:"starting_bid"`
	ReservePrice *int64    `json:"reserve_price,omitempty"`
	MinIncrement int64     `json:"min_increment,omitempty"`
	CurrentBid   int64     `json:"current_bid"`
	BidCount     int       `json:"bid_count"`
	EndDate      time.Time `json:"end_date"`
	ReserveMet   bool      `json:"reserve_met"`
	Watchers     int64     `json:"watchers"`

	// CachedTimeLeft is the display string written by the countdown publisher. Advisory only.
	CachedTimeLeft string `json:"-"`
}

// HasReserve reports whether a reserve price was set at creation
func (a Auction) HasReserve() bool {
	return a.ReservePrice != nil
}

// Bid represents an accepted bid in an auction's ledger
type Bid struct {
	BidID     string    `json:"bid_id"`
	AuctionID string    `json:"auction_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	IsWinning bool      `json:"is_winning"`
}

// AuctionSnapshot is a point-in-time read of an auction with its derived fields
type AuctionSnapshot struct {
	Auction
	Status          AuctionStatus `json:"status"`
	TimeRemainingMs int64         `json:"time_remaining_ms"`
	TimeLeft        string        `json:"time_left"`
	WinningBid      *Bid          `json:"winning_bid,omitempty"`
	ObservedAt      time.Time     `json:"observed_at"`
}

// AuctionFilter narrows and orders an auction listing
type AuctionFilter struct {
	Search   string
	Category string
	Status   AuctionStatus
	SortBy   string
}
