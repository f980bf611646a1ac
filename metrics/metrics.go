package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pizza_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pizza_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pizza_auth_attempts_total",
			Help: "Register and login attempts by outcome",
		},
		[]string{"operation", "outcome"},
	)

	OrdersPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pizza_orders_total",
			Help: "Orders persisted, by fulfillment outcome",
		},
		[]string{"status"},
	)

	FactoryLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pizza_factory_request_duration_seconds",
			Help:    "Latency of the order fulfillment call",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	Revenue = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pizza_revenue_total",
			Help: "Sum of prices of fulfilled orders",
		},
	)
)
