// Package metrics exposes prometheus instrumentation for the graph
// backends and the model-transformation pipeline. A nil *Registry is a
// valid no-op sink, so the library works without a metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the resource-model core.
type Registry struct {
	// Graph backend metrics
	GraphOperationsTotal   *prometheus.CounterVec
	GraphOperationDuration *prometheus.HistogramVec
	GraphNodesTotal        *prometheus.GaugeVec

	// Import metrics
	ImportsTotal       *prometheus.CounterVec
	ImportRetriesTotal prometheus.Counter
	ImportDuration     prometheus.Histogram

	// Broker model metrics
	ADMsGeneratedTotal prometheus.Counter
	MergesTotal        *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewRegistry creates and registers all metrics on a fresh prometheus
// registry.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.GraphOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resgraph_graph_operations_total",
		Help: "Total graph operations by operation and status",
	}, []string{"operation", "status"})

	r.GraphOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "resgraph_graph_operation_duration_seconds",
		Help:    "Graph operation latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	r.GraphNodesTotal = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "resgraph_graph_nodes_total",
		Help: "Node count per graph",
	}, []string{"graph_id"})

	r.ImportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resgraph_imports_total",
		Help: "Bulk graph imports by status",
	}, []string{"status"})

	r.ImportRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resgraph_import_retries_total",
		Help: "Bulk import attempts retried after transient failures",
	})

	r.ImportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "resgraph_import_duration_seconds",
		Help:    "Bulk import latency including retries",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	r.ADMsGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resgraph_adms_generated_total",
		Help: "Delegation models generated from resource models",
	})

	r.MergesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resgraph_merges_total",
		Help: "Broker model merge operations by kind and status",
	}, []string{"kind", "status"})

	r.registry.MustRegister(
		r.GraphOperationsTotal,
		r.GraphOperationDuration,
		r.GraphNodesTotal,
		r.ImportsTotal,
		r.ImportRetriesTotal,
		r.ImportDuration,
		r.ADMsGeneratedTotal,
		r.MergesTotal,
	)
	return r
}

// PrometheusRegistry returns the underlying registry for exposition.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordGraphOperation records one backend operation.
func (r *Registry) RecordGraphOperation(operation string, err error, duration time.Duration) {
	if r == nil {
		return
	}
	r.GraphOperationsTotal.WithLabelValues(operation, statusOf(err)).Inc()
	r.GraphOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetGraphNodes records the node count of a graph.
func (r *Registry) SetGraphNodes(graphID string, count int) {
	if r == nil {
		return
	}
	r.GraphNodesTotal.WithLabelValues(graphID).Set(float64(count))
}

// RecordImport records one bulk import outcome.
func (r *Registry) RecordImport(err error, duration time.Duration, retries int) {
	if r == nil {
		return
	}
	r.ImportsTotal.WithLabelValues(statusOf(err)).Inc()
	r.ImportDuration.Observe(duration.Seconds())
	r.ImportRetriesTotal.Add(float64(retries))
}

// RecordADMGenerated counts one generated delegation model.
func (r *Registry) RecordADMGenerated() {
	if r == nil {
		return
	}
	r.ADMsGeneratedTotal.Inc()
}

// RecordMerge records one broker merge operation of the given kind
// (merge, unmerge, snapshot, rollback).
func (r *Registry) RecordMerge(kind string, err error) {
	if r == nil {
		return
	}
	r.MergesTotal.WithLabelValues(kind, statusOf(err)).Inc()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
