// Package metrics exposes editor activity as Prometheus metrics on a private
// registry.
package metrics

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TFMV/graphsketch/models"
)

// Outcome labels
const (
	OutcomeOK           = "ok"
	OutcomePrecondition = "precondition"
	OutcomeInvariant    = "invariant"
	OutcomeError        = "error"
)

// Registry holds all editor metrics. A nil *Registry is valid and records
// nothing.
type Registry struct {
	// Gesture metrics
	GesturesTotal            *prometheus.CounterVec
	NodesCreatedTotal        *prometheus.CounterVec
	EdgesCreatedTotal        prometheus.Counter
	PlaceholdersDroppedTotal prometheus.Counter
	ArrangeRunsTotal         prometheus.Counter
	ArrangeMovedNodes        prometheus.Histogram

	// Traversal metrics
	TraversalsTotal       *prometheus.CounterVec
	TraversalStepsTotal   prometheus.Counter
	TraversalVisitedNodes prometheus.Histogram
	TraversalDuration     prometheus.Histogram

	// Graph metrics
	GraphNodes prometheus.Gauge
	GraphEdges prometheus.Gauge

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initGestureMetrics()
	r.initTraversalMetrics()
	r.initGraphMetrics()
	r.initHTTPMetrics()
	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Outcome classifies err for the outcome label
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, models.ErrPrecondition):
		return OutcomePrecondition
	case errors.Is(err, models.ErrInvariant):
		return OutcomeInvariant
	default:
		return OutcomeError
	}
}

// RecordGesture records one dispatched pointer event
func (r *Registry) RecordGesture(kind string, err error) {
	if r == nil {
		return
	}
	r.GesturesTotal.WithLabelValues(kind, Outcome(err)).Inc()
}

// RecordNodeCreated records a node added by a gesture. nodeType is "stage"
// or "border".
func (r *Registry) RecordNodeCreated(nodeType string) {
	if r == nil {
		return
	}
	r.NodesCreatedTotal.WithLabelValues(nodeType).Inc()
}

// RecordEdgeCreated records an edge drawn by the user
func (r *Registry) RecordEdgeCreated() {
	if r == nil {
		return
	}
	r.EdgesCreatedTotal.Inc()
}

// RecordPlaceholderDropped records the removal of an edge-draw placeholder
func (r *Registry) RecordPlaceholderDropped() {
	if r == nil {
		return
	}
	r.PlaceholdersDroppedTotal.Inc()
}

// RecordArrange records a layout run
func (r *Registry) RecordArrange(moved int) {
	if r == nil {
		return
	}
	r.ArrangeRunsTotal.Inc()
	r.ArrangeMovedNodes.Observe(float64(moved))
}

// RecordTraversalStep records one node colored by a traversal
func (r *Registry) RecordTraversalStep() {
	if r == nil {
		return
	}
	r.TraversalStepsTotal.Inc()
}

// RecordTraversal records a finished or failed traversal
func (r *Registry) RecordTraversal(err error, visited int, duration time.Duration) {
	if r == nil {
		return
	}
	r.TraversalsTotal.WithLabelValues(Outcome(err)).Inc()
	r.TraversalVisitedNodes.Observe(float64(visited))
	r.TraversalDuration.Observe(duration.Seconds())
}

// SetGraphSize updates the graph size gauges
func (r *Registry) SetGraphSize(nodes, edges int) {
	if r == nil {
		return
	}
	r.GraphNodes.Set(float64(nodes))
	r.GraphEdges.Set(float64(edges))
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(path, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}

func (r *Registry) initGestureMetrics() {
	r.GesturesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphsketch_gestures_total",
			Help: "Total number of pointer events dispatched to the controller",
		},
		[]string{"kind", "outcome"},
	)

	r.NodesCreatedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphsketch_nodes_created_total",
			Help: "Total number of nodes created by gestures",
		},
		[]string{"type"}, // stage, border
	)

	r.EdgesCreatedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphsketch_edges_created_total",
			Help: "Total number of edges drawn by the user",
		},
	)

	r.PlaceholdersDroppedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphsketch_placeholders_dropped_total",
			Help: "Total number of edge-draw placeholders removed",
		},
	)

	r.ArrangeRunsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphsketch_arrange_runs_total",
			Help: "Total number of layout runs",
		},
	)

	r.ArrangeMovedNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphsketch_arrange_moved_nodes",
			Help:    "Number of nodes moved by a layout run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
	)
}

func (r *Registry) initTraversalMetrics() {
	r.TraversalsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphsketch_traversals_total",
			Help: "Total number of traversals",
		},
		[]string{"outcome"},
	)

	r.TraversalStepsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphsketch_traversal_steps_total",
			Help: "Total number of nodes colored by traversals",
		},
	)

	r.TraversalVisitedNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphsketch_traversal_visited_nodes",
			Help:    "Number of nodes visited per traversal",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
	)

	r.TraversalDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphsketch_traversal_duration_seconds",
			Help:    "Wall time of traversals in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
	)
}

func (r *Registry) initGraphMetrics() {
	r.GraphNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphsketch_graph_nodes",
			Help: "Number of nodes in the graph",
		},
	)

	r.GraphEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphsketch_graph_edges",
			Help: "Number of edges in the graph",
		},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphsketch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphsketch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)
}
