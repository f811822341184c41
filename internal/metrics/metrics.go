package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lesson_slots"

var (
	once sync.Once

	reservations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Reservation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Slot-opened notifications by delivery result.",
		},
		[]string{"result"},
	)

	openSlots = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_slots",
			Help:      "Open slots that have not started yet.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservations, notifications, openSlots, httpRequests)
	})
}

// IncReservation increments the counter for a reservation outcome label.
func IncReservation(outcome string) {
	reservations.WithLabelValues(outcome).Inc()
}

// AddNotifications records sent and failed deliveries of one fan-out.
func AddNotifications(sent, failed int) {
	if sent > 0 {
		notifications.WithLabelValues("sent").Add(float64(sent))
	}
	if failed > 0 {
		notifications.WithLabelValues("failed").Add(float64(failed))
	}
}

// SetOpenSlots sets the open slots gauge.
func SetOpenSlots(n int) {
	openSlots.Set(float64(n))
}

// IncHTTP increments the counter for a route and status code.
func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}
