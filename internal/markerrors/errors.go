package markerrors

import "errors"

// Lookup errors
var (
	ErrNotFound         = errors.New("not found")
	ErrWrongListingType = errors.New("operation not valid for this listing type")
)

// State machine errors
var (
	ErrInvalidState   = errors.New("transition not legal from current state")
	ErrBidTooLow      = errors.New("bid amount too low")
	ErrAuctionExpired = errors.New("auction has ended")
	ErrNoBuyNowPrice  = errors.New("buy now price not set for this auction")
	ErrNoBids         = errors.New("auction has no bids")
	ErrUnavailable    = errors.New("selected dates are not available")
	ErrInvalidRange   = errors.New("invalid date range")
)

// Collaborator errors
var (
	ErrPaymentFailed          = errors.New("payment request failed")
	ErrConcurrentModification = errors.New("listing modified concurrently")
)
