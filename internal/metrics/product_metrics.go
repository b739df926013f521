package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProductsCreated is a Prometheus counter for tracking the total number of products created.
	ProductsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_created_total",
		Help: "The total number of products created",
	})

	// ProductsUpdated is a Prometheus counter for tracking the total number of products updated.
	ProductsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_updated_total",
		Help: "The total number of products updated",
	})

	// ProductsDeleted is a Prometheus counter for tracking the total number of products deleted.
	ProductsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_deleted_total",
		Help: "The total number of products deleted",
	})

	// ProductSearches counts name searches served by the API.
	ProductSearches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_searches_total",
		Help: "The total number of product searches",
	})

	// HTTPRequestDuration observes API latency per route and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests handled by the product API",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// ProductEventsConsumed counts product events handled by the notification service, per action.
	ProductEventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "product_events_consumed_total",
		Help: "The total number of product events consumed by the notification service",
	}, []string{"action"})
)
