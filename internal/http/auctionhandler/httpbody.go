package auctionhandler

type PlaceBidBody struct {
	BidderID string  `json:"bidder_id" binding:"required"      example:"user123"`
	Amount   float64 `json:"amount"    binding:"required,gt=0" example:"110"`
} // @name PlaceBidRequest

type BuyNowBody struct {
	BuyerID string `json:"buyer_id" binding:"required" example:"user123"`
} // @name BuyNowRequest

type EndAuctionBody struct {
	WinnerID string `json:"winner_id" binding:"omitempty" example:"user123"`
} // @name EndAuctionRequest
