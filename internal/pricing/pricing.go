package pricing

import (
	"fmt"
	"time"

	"marketplacego/internal/markerrors"
)

const day = 24 * time.Hour

// RateSchedule carries a rental listing's rates. MonthlyRate is not used by
// Quote; it is exposed for subscription-style billing handled by the payment
// collaborator.
type RateSchedule struct {
	DailyRate   float64 `json:"daily_rate"`
	WeeklyRate  float64 `json:"weekly_rate"`
	MonthlyRate float64 `json:"monthly_rate,omitempty"`
}

// Quote is the result of a rental price computation.
type Quote struct {
	TotalPrice    float64 `json:"total_price"`
	Days          int     `json:"days"`
	Weeks         int     `json:"weeks"`
	RemainingDays int     `json:"remaining_days"`
}

// Calculate converts a date range into a rental charge. A partial day counts
// as a full day; full weeks are billed at the weekly rate, the remainder at
// the daily rate.
func Calculate(rates RateSchedule, start, end time.Time) (Quote, error) {
	if !end.After(start) {
		return Quote{}, fmt.Errorf("pricing: end %s not after start %s: %w",
			end.Format(time.RFC3339), start.Format(time.RFC3339), markerrors.ErrInvalidRange)
	}

	days := CeilDays(end.Sub(start))
	weeks := days / 7
	remaining := days % 7

	return Quote{
		TotalPrice:    float64(weeks)*rates.WeeklyRate + float64(remaining)*rates.DailyRate,
		Days:          days,
		Weeks:         weeks,
		RemainingDays: remaining,
	}, nil
}

// CeilDays rounds a duration up to whole days.
func CeilDays(d time.Duration) int {
	n := int(d / day)
	if d%day > 0 {
		n++
	}
	return n
}
