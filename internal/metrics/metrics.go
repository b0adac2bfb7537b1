// Package metrics exposes Prometheus instrumentation for analysis runs and
// the graph HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "convograph"

// Collector holds all metrics on its own registry, so several collectors
// can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	ConversationsAnalyzed prometheus.Counter
	EntitiesExtracted     *prometheus.CounterVec
	RelationshipsDerived  *prometheus.CounterVec
	AnalyzeDuration       prometheus.Histogram

	GraphNodes prometheus.Gauge
	GraphEdges prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates and registers a collector under namespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = Namespace
	}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		ConversationsAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversations_analyzed_total",
			Help:      "Total number of conversations analyzed",
		}),
		EntitiesExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_extracted_total",
			Help:      "Deduplicated entities extracted, by entity type",
		}, []string{"type"}),
		RelationshipsDerived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relationships_derived_total",
			Help:      "Deduplicated relationships derived, by relationship type",
		}, []string{"type"}),
		AnalyzeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analyze_duration_seconds",
			Help:      "Time spent analyzing one conversation",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		GraphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Current number of nodes in the graph",
		}),
		GraphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Current number of edges in the graph",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		c.ConversationsAnalyzed,
		c.EntitiesExtracted,
		c.RelationshipsDerived,
		c.AnalyzeDuration,
		c.GraphNodes,
		c.GraphEdges,
		c.HTTPRequests,
		c.HTTPDuration,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// SetGraphSize records the current graph size.
func (c *Collector) SetGraphSize(nodes, edges int) {
	c.GraphNodes.Set(float64(nodes))
	c.GraphEdges.Set(float64(edges))
}
