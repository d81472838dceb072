package rentalhandler

import "time"

type AvailabilityQuery struct {
	Start time.Time `form:"start" binding:"required" time_format:"2006-01-02"`
	End   time.Time `form:"end"   binding:"required" time_format:"2006-01-02"`
} // @name AvailabilityQuery

type CreateBookingBody struct {
	RenterID  string    `json:"renter_id"  binding:"required" example:"user123"`
	StartDate time.Time `json:"start_date" binding:"required" example:"2026-10-01T00:00:00Z"`
	EndDate   time.Time `json:"end_date"   binding:"required" example:"2026-10-11T00:00:00Z"`
} // @name CreateBookingRequest

type CancelBookingBody struct {
	Reason string `json:"reason" binding:"omitempty" example:"change of plans"`
} // @name CancelBookingRequest
