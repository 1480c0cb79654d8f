// Package metrics holds the Prometheus collectors of the service. They are registered with the
// default registry, which is exposed under /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BulkItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "professionals_bulk_items_total",
			Help: "Total number of processed bulk upsert items by outcome",
		},
		[]string{"status"},
	)

	ProfessionalsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "professionals_created_total",
			Help: "Total number of professionals created through the single create endpoint",
		},
	)
)
