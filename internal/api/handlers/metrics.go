package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "islandora_handle",
		Name:      "operations_total",
		Help:      "Reconciliation operations processed, by operation and outcome.",
	}, []string{"operation", "outcome"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "islandora_handle",
		Name:      "operation_duration_seconds",
		Help:      "Wall time of reconciliation operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
