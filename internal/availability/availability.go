package availability

import (
	"time"

	"marketplacego/internal/domain"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. A shared boundary (one range ending exactly when
// the other starts) is not a conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Check reports whether [start, end) can be booked on the given rental:
// the range must sit inside the rentable window and must not overlap any
// non-cancelled booking or blackout interval.
func Check(r *domain.RentalDetails, start, end time.Time) bool {
	if start.Before(r.AvailableFrom) || end.After(r.AvailableTo) {
		return false
	}
	for i := range r.Bookings {
		b := &r.Bookings[i]
		if b.Status == domain.BookingCancelled {
			continue
		}
		if Overlaps(start, end, b.StartDate, b.EndDate) {
			return false
		}
	}
	for _, p := range r.UnavailableDates {
		if Overlaps(start, end, p.StartDate, p.EndDate) {
			return false
		}
	}
	return true
}
