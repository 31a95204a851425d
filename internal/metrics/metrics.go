package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gharbeti",
			Name:      "bookings_created_total",
			Help:      "Bookings created.",
		},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gharbeti",
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions by target state.",
		},
		[]string{"to"},
	)

	bookingsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gharbeti",
			Name:      "bookings_expired_total",
			Help:      "Pending bookings cancelled by the expiry sweep.",
		},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gharbeti",
			Name:      "payments_total",
			Help:      "Payment gateway outcomes by stage.",
		},
		[]string{"stage"}, // initiated, completed, failed
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingsCreated, bookingTransitions, bookingsExpired, payments)
	})
}

func IncBookingsCreated() {
	bookingsCreated.Inc()
}

func IncBookingTransition(to string) {
	bookingTransitions.WithLabelValues(to).Inc()
}

func AddBookingsExpired(n int64) {
	bookingsExpired.Add(float64(n))
}

func IncPayment(stage string) {
	payments.WithLabelValues(stage).Inc()
}
