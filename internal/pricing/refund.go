package pricing

import (
	"time"

	"marketplacego/internal/domain"
)

// RefundFraction maps a cancellation policy and days-until-start to the
// refundable fraction of the rental charge.
//
//	flexible: 100% at any time
//	moderate: 100% if >=7 days out, 50% if >=3, else 0
//	strict:   100% if >=14 days out, 50% if >=7, else 0
func RefundFraction(policy string, daysUntilStart int) float64 {
	switch policy {
	case domain.PolicyFlexible:
		return 1
	case domain.PolicyModerate:
		switch {
		case daysUntilStart >= 7:
			return 1
		case daysUntilStart >= 3:
			return 0.5
		}
	case domain.PolicyStrict:
		switch {
		case daysUntilStart >= 14:
			return 1
		case daysUntilStart >= 7:
			return 0.5
		}
	}
	return 0
}

// RefundAmount computes the refund for cancelling a booking that starts at
// start, as seen from now.
func RefundAmount(policy string, totalPrice float64, start, now time.Time) float64 {
	return totalPrice * RefundFraction(policy, CeilDays(start.Sub(now)))
}
