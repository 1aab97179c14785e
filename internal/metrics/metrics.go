// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cab_booking"

var (
	BookingsRequested = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "bookings_requested_total", Help: "Ride requests by cab type"},
		[]string{"cab_type"},
	)
	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "booking_transitions_total", Help: "Committed booking transitions by target status"},
		[]string{"status"},
	)
	MatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "match_latency_seconds",
		Help:      "Time spent selecting and claiming a driver",
		Buckets:   prometheus.DefBuckets,
	})
	ClaimsLost = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "driver_claims_lost_total", Help: "Claims lost to a concurrent request",
	})
	PaymentCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "payment_callbacks_total", Help: "Gateway callbacks by status and outcome"},
		[]string{"status", "outcome"},
	)
	Refunds = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "refunds_total", Help: "Refund attempts by outcome"},
		[]string{"outcome"},
	)
	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "websocket_clients", Help: "Connected websocket clients",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
