package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bidsPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplacego",
		Name:      "bids_placed_total",
		Help:      "Accepted auction bids.",
	})
	bidsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplacego",
		Name:      "bids_rejected_total",
		Help:      "Rejected auction bids by reason.",
	}, []string{"reason"})
	auctionsEnded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplacego",
		Name:      "auctions_ended_total",
		Help:      "Ended auctions by outcome.",
	}, []string{"outcome"})
	bookingsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplacego",
		Name:      "bookings_created_total",
		Help:      "Rental bookings created.",
	})
	bookingsCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplacego",
		Name:      "bookings_cancelled_total",
		Help:      "Rental bookings cancelled.",
	})
	paymentsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplacego",
		Name:      "payments_dispatched_total",
		Help:      "Payment intents dispatched to the gateway.",
	}, []string{"kind"})
	paymentsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplacego",
		Name:      "payments_failed_total",
		Help:      "Payment intents that exhausted their retries.",
	}, []string{"kind"})
)

// Register registers all collectors. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bidsPlaced, bidsRejected, auctionsEnded,
			bookingsCreated, bookingsCancelled,
			paymentsDispatched, paymentsFailed,
		)
	})
}

func IncBidPlaced()                  { bidsPlaced.Inc() }
func IncBidRejected(reason string)   { bidsRejected.WithLabelValues(reason).Inc() }
func IncAuctionEnded(outcome string) { auctionsEnded.WithLabelValues(outcome).Inc() }
func IncBookingCreated()             { bookingsCreated.Inc() }
func IncBookingCancelled()           { bookingsCancelled.Inc() }

func IncPaymentDispatched(kind string) { paymentsDispatched.WithLabelValues(kind).Inc() }
func IncPaymentFailed(kind string)     { paymentsFailed.WithLabelValues(kind).Inc() }
