// Package metrics provides Prometheus metrics for the affinities service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EntityOperationsTotal tracks CRUD operations by kind and outcome
	EntityOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ndp",
			Subsystem: "catalog",
			Name:      "entity_operations_total",
			Help:      "Total number of entity CRUD operations by kind, operation, and outcome",
		},
		[]string{"kind", "operation", "outcome"},
	)

	// LinkedResolutionsTotal tracks linked-entity resolutions by input kind
	LinkedResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ndp",
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Total number of linked-entity resolutions by input kind",
		},
		[]string{"input_kind"},
	)

	// LinkedResolutionDuration tracks resolution latency in seconds
	LinkedResolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ndp",
			Subsystem: "resolver",
			Name:      "resolution_duration_seconds",
			Help:      "Duration of linked-entity resolutions in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// LinkedResolutionNeighbors tracks the size of resolution results
	LinkedResolutionNeighbors = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ndp",
			Subsystem: "resolver",
			Name:      "resolution_neighbors",
			Help:      "Number of neighbors returned per linked-entity resolution",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)
)
