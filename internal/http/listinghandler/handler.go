package listinghandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplacego/internal/domain"
	"marketplacego/internal/http/apierr"
	"marketplacego/internal/services/listing"
)

type CreateListingBody struct {
	SellerID       string                 `json:"seller_id"    binding:"required" example:"seller123"`
	Title          string                 `json:"title"        binding:"required" example:"City bike"`
	ListingType    string                 `json:"listing_type" binding:"required,oneof=sale rent auction"`
	AuctionDetails *domain.AuctionDetails `json:"auction_details,omitempty"`
	RentalDetails  *domain.RentalDetails  `json:"rental_details,omitempty"`
} // @name CreateListingRequest

type Handler struct {
	svc listing.IListingService
}

func New(svc listing.IListingService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/listings", h.create)
	r.GET("/listings", h.list)
	r.GET("/listings/:id", h.get)
}

// @Summary		Create a listing
// @Tags			Listings
// @Param			body	body	CreateListingBody	true	"Listing payload"
// @Success		201	{object}	domain.Listing
// @Failure		400	{object}	apierr.Response
// @Router			/listings [post]
func (h *Handler) create(ginCtx *gin.Context) {
	var body CreateListingBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, apierr.Response{Error: err.Error()})
		return
	}
	l, err := h.svc.Create(ginCtx.Request.Context(), &domain.Listing{
		SellerID:       body.SellerID,
		Title:          body.Title,
		ListingType:    body.ListingType,
		AuctionDetails: body.AuctionDetails,
		RentalDetails:  body.RentalDetails,
	})
	if err != nil {
		ginCtx.JSON(apierr.Status(err), apierr.Response{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusCreated, l)
}

// @Summary		List listings
// @Tags			Listings
// @Success		200	{array}	domain.Listing
// @Router			/listings [get]
func (h *Handler) list(ginCtx *gin.Context) {
	out, err := h.svc.List(ginCtx.Request.Context())
	if err != nil {
		ginCtx.JSON(apierr.Status(err), apierr.Response{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, out)
}

// @Summary		Get a listing
// @Tags			Listings
// @Param			id	path		string	true	"Listing ID"
// @Success		200	{object}	domain.Listing
// @Failure		404	{object}	apierr.Response
// @Router			/listings/{id} [get]
func (h *Handler) get(ginCtx *gin.Context) {
	l, err := h.svc.Get(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		ginCtx.JSON(apierr.Status(err), apierr.Response{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, l)
}
