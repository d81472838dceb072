package auctionhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplacego/internal/http/apierr"
	"marketplacego/internal/services/auction"
)

type Handler struct {
	svc auction.IAuctionService
}

func New(svc auction.IAuctionService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/listings/:id/auction/status", h.status)
	r.POST("/listings/:id/auction/start", h.start)
	r.POST("/listings/:id/auction/bid", h.bid)
	r.POST("/listings/:id/auction/buy-now", h.buyNow)
	r.POST("/listings/:id/auction/end", h.end)
	r.POST("/listings/:id/auction/cancel", h.cancel)
}

// @Summary		Auction status
// @Description	Current price, remaining time, bids and winner of an auction.
// @Tags			Auctions
// @Param			id	path		string	true	"Listing ID"
// @Success		200	{object}	auction.StatusDTO
// @Failure		404	{object}	apierr.Response
// @Router			/listings/{id}/auction/status [get]
func (h *Handler) status(ginCtx *gin.Context) {
	dto, err := h.svc.GetStatus(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		ginCtx.JSON(apierr.Status(err), apierr.Response{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, dto)
}

// @Summary		Start an auction
// @Description	Moves a pending auction to active.
// @Tags			Auctions
// @Param			id	path	string	true	"Listing ID"
// @Success		200	{object}	domain.Listing
// @Failure		409	{object}	apierr.Response
// @Router			/listings/{id}/auction/start [post]
func (h *Handler) start(ginCtx *gin.Context) {
	l, err := h.svc.Start(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		ginCtx.JSON(apierr.Status(err), apierr.Response{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, l)
}

// @Summary		Place a bid
// @Description	Admits a bid against an active auction; a bid reaching the buy-now price ends the auction.
// @Tags			Auctions
// @Param			id		path	string			true	"Listing ID"
// @Param			body	body	PlaceBidBody	true	"Bid payload"
// @Success		200	{object}	auction.BidResult
// @Failure		400	{object}	apierr.Response
// @Failure		409	{object}	apierr.Response
// @Router			/listings/{id}/auction/bid [post]
func (h *Handler) bid(ginCtx *gin.Context) {
	var body PlaceBidBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, apierr.Response{Error: err.Error()})
		return
	}
	res, err := h.svc.PlaceBid(ginCtx.Request.Context(), ginCtx.Param("id"), body.BidderID, body.Amount)
	if err != nil {
		ginCtx.JSON(apierr.Status(err), apierr.Response{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, res)
}

// @Summary		Buy now
// @Description	Purchases the item at the fixed buy-now price, ending the auction.
// @Tags			Auctions
// @Param			id		path	string		true	"Listing ID"
// @Param			body	body	BuyNowBody	true	"Buyer payload"
// @Success		200	{object}	auction.BidResult
// @Failure		400	{object}	apierr.Response
// @Failure		409	{object}	apierr.Response
// @Router			/listings/{id}/auction/buy-now [post]
func (h *Handler) buyNow(ginCtx *gin.Context) {
	var body BuyNowBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, apierr.Response{Error: err.Error()})
		return
	}
	res, err := h.svc.BuyNow(ginCtx.Request.Context(), ginCtx.Param("id"), body.BuyerID)
	if err != nil {
		ginCtx.JSON(apierr.Status(err), apierr.Response{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, res)
}

// @Summary		End an auction
// @Description	Concludes an active auction; without an explicit winner the highest bidder wins.
// @Tags			Auctions
// @Param			id		path	string			true	"Listing ID"
// @Param			body	body	EndAuctionBody	false	"Optional winner override"
// @Success		200	{object}	auction.EndResult
// @Failure		409	{object}	apierr.Response
// @Router			/listings/{id}/auction/end [post]
func (h *Handler) end(ginCtx *gin.Context) {
	var body EndAuctionBody
	if ginCtx.Request.ContentLength > 0 {
		if err := ginCtx.ShouldBindJSON(&body); err != nil {
			ginCtx.JSON(http.StatusBadRequest, apierr.Response{Error: err.Error()})
			return
		}
	}
	res, err := h.svc.End(ginCtx.Request.Context(), ginCtx.Param("id"), body.WinnerID)
	if err != nil {
		ginCtx.JSON(apierr.Status(err), apierr.Response{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, res)
}

// @Summary		Cancel an auction
// @Description	Withdraws an auction that has not ended or sold.
// @Tags			Auctions
// @Param			id	path	string	true	"Listing ID"
// @Success		202
// @Failure		409	{object}	apierr.Response
// @Router			/listings/{id}/auction/cancel [post]
func (h *Handler) cancel(ginCtx *gin.Context) {
	if err := h.svc.Cancel(ginCtx.Request.Context(), ginCtx.Param("id")); err != nil {
		ginCtx.JSON(apierr.Status(err), apierr.Response{Error: err.Error()})
		return
	}
	ginCtx.Status(http.StatusAccepted)
}
