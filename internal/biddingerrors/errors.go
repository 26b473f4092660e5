package biddingerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrAuctionExists   = errors.New("auction already exists")
	ErrNoBids          = errors.New("no bids found for auction")
	ErrBidderNoBids    = errors.New("bidder has not placed any bids")
	ErrLedgerConflict  = errors.New("bid ledger conflict")
)

// business logic errors
var (
	ErrInvalidBid       = errors.New("invalid bid")
	ErrAuctionEnded     = errors.New("auction has ended")
	ErrBidTooLow        = errors.New("bid amount too low")
	ErrInvalidBidder    = errors.New("invalid bidder")
	ErrInvalidAuction   = errors.New("invalid auction")
	ErrStoreUnavailable = errors.New("auction store unavailable")
)

// Reason codes returned to clients alongside rejections.
const (
	ReasonAuctionEnded     = "AUCTION_ENDED"
	ReasonBidTooLow        = "BID_TOO_LOW"
	ReasonInvalidBidder    = "INVALID_BIDDER"
	ReasonAuctionNotFound  = "AUCTION_NOT_FOUND"
	ReasonStoreUnavailable = "STORE_UNAVAILABLE"
)

// Reason returns the stable rejection code for err, or "" when err is not a bid rejection.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrAuctionEnded):
		return ReasonAuctionEnded
	case errors.Is(err, ErrBidTooLow):
		return ReasonBidTooLow
	case errors.Is(err, ErrInvalidBidder):
		return ReasonInvalidBidder
	case errors.Is(err, ErrAuctionNotFound):
		return ReasonAuctionNotFound
	case errors.Is(err, ErrStoreUnavailable):
		return ReasonStoreUnavailable
	default:
		return ""
	}
}
