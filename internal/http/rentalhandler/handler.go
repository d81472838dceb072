package rentalhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplacego/internal/http/apierr"
	"marketplacego/internal/services/rental"
)

type Handler struct {
	svc rental.IRentalService
}

func New(svc rental.IRentalService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/listings/:id/rental/availability", h.availability)
	r.POST("/listings/:id/rental/bookings", h.createBooking)
	r.POST("/listings/:id/rental/bookings/:bookingId/confirm", h.confirmBooking)
	r.POST("/listings/:id/rental/bookings/:bookingId/cancel", h.cancelBooking)
	r.POST("/listings/:id/rental/bookings/:bookingId/complete", h.completeRental)
}

// @Summary		Rental availability
// @Description	Whether a date range can be booked, and at what price.
// @Tags			Rentals
// @Param			id		path		string	true	"Listing ID"
// @Param			start	query		string	true	"Start date (YYYY-MM-DD)"
// @Param			end		query		string	true	"End date (YYYY-MM-DD)"
// @Success		200	{object}	rental.AvailabilityDTO
// @Failure		400	{object}	apierr.Response
// @Failure		404	{object}	apierr.Response
// @Router			/listings/{id}/rental/availability [get]
func (h *Handler) availability(ginCtx *gin.Context) {
	var q AvailabilityQuery
	if err := ginCtx.ShouldBindQuery(&q); err != nil {
		ginCtx.JSON(http.StatusBadRequest, apierr.Response{Error: err.Error()})
		return
	}
	dto, err := h.svc.GetAvailability(ginCtx.Request.Context(), ginCtx.Param("id"), q.Start, q.End)
	if err != nil {
		ginCtx.JSON(apierr.Status(err), apierr.Response{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, dto)
}

// @Summary		Create a booking
// @Description	Books a date range after the availability check passes; requests a payment hold for rent plus deposit.
// @Tags			Rentals
// @Param			id		path	string				true	"Listing ID"
// @Param			body	body	CreateBookingBody	true	"Booking payload"
// @Success		201	{object}	rental.BookingResult
// @Failure		400	{object}	apierr.Response
// @Failure		409	{object}	apierr.Response
// @Router			/listings/{id}/rental/bookings [post]
func (h *Handler) createBooking(ginCtx *gin.Context) {
	var body CreateBookingBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, apierr.Response{Error: err.Error()})
		return
	}
	res, err := h.svc.CreateBooking(ginCtx.Request.Context(), ginCtx.Param("id"),
		body.RenterID, body.StartDate, body.EndDate)
	if err != nil {
		ginCtx.JSON(apierr.Status(err), apierr.Response{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusCreated, res)
}

// @Summary		Confirm a booking
// @Tags			Rentals
// @Param			id			path	string	true	"Listing ID"
// @Param			bookingId	path	string	true	"Booking ID"
// @Success		200	{object}	domain.Booking
// @Failure		404	{object}	apierr.Response
// @Failure		409	{object}	apierr.Response
// @Router			/listings/{id}/rental/bookings/{bookingId}/confirm [post]
func (h *Handler) confirmBooking(ginCtx *gin.Context) {
	b, err := h.svc.ConfirmBooking(ginCtx.Request.Context(), ginCtx.Param("id"), ginCtx.Param("bookingId"))
	if err != nil {
		ginCtx.JSON(apierr.Status(err), apierr.Response{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, b)
}

// @Summary		Cancel a booking
// @Description	Cancels a pending or confirmed booking and requests the policy refund.
// @Tags			Rentals
// @Param			id			path	string				true	"Listing ID"
// @Param			bookingId	path	string				true	"Booking ID"
// @Param			body		body	CancelBookingBody	false	"Cancellation reason"
// @Success		200	{object}	rental.CancelResult
// @Failure		404	{object}	apierr.Response
// @Failure		409	{object}	apierr.Response
// @Router			/listings/{id}/rental/bookings/{bookingId}/cancel [post]
func (h *Handler) cancelBooking(ginCtx *gin.Context) {
	var body CancelBookingBody
	if ginCtx.Request.ContentLength > 0 {
		if err := ginCtx.ShouldBindJSON(&body); err != nil {
			ginCtx.JSON(http.StatusBadRequest, apierr.Response{Error: err.Error()})
			return
		}
	}
	res, err := h.svc.CancelBooking(ginCtx.Request.Context(), ginCtx.Param("id"),
		ginCtx.Param("bookingId"), body.Reason)
	if err != nil {
		ginCtx.JSON(apierr.Status(err), apierr.Response{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, res)
}

// @Summary		Complete a rental
// @Description	Marks the rental finished and releases the security deposit.
// @Tags			Rentals
// @Param			id			path	string	true	"Listing ID"
// @Param			bookingId	path	string	true	"Booking ID"
// @Success		200	{object}	domain.Booking
// @Failure		404	{object}	apierr.Response
// @Router			/listings/{id}/rental/bookings/{bookingId}/complete [post]
func (h *Handler) completeRental(ginCtx *gin.Context) {
	b, err := h.svc.CompleteRental(ginCtx.Request.Context(), ginCtx.Param("id"), ginCtx.Param("bookingId"))
	if err != nil {
		ginCtx.JSON(apierr.Status(err), apierr.Response{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, b)
}
