package apierr

import (
	"errors"
	"net/http"

	"marketplacego/internal/markerrors"
)

type Response struct {
	Error string `json:"error"`
} // @name ErrorResponse

// Status maps the domain error taxonomy onto HTTP status codes.
func Status(err error) int {
	switch {
	case errors.Is(err, markerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, markerrors.ErrBidTooLow),
		errors.Is(err, markerrors.ErrInvalidRange),
		errors.Is(err, markerrors.ErrWrongListingType),
		errors.Is(err, markerrors.ErrNoBuyNowPrice):
		return http.StatusBadRequest
	case errors.Is(err, markerrors.ErrInvalidState),
		errors.Is(err, markerrors.ErrAuctionExpired),
		errors.Is(err, markerrors.ErrNoBids),
		errors.Is(err, markerrors.ErrUnavailable),
		errors.Is(err, markerrors.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, markerrors.ErrPaymentFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
