package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "disaster_events"

// Metrics holds the Prometheus counters, histograms, and gauges for the event service.
type Metrics struct {
	EventsCreated  prometheus.Counter
	CreateFailures prometheus.Counter
	PrimaryReads   *prometheus.CounterVec // labels: op={list,get}, outcome={success,error}

	// Collaborator outcomes.
	Predictions      *prometheus.CounterVec // labels: outcome={success,error,unavailable}
	MirrorOperations *prometheus.CounterVec // labels: op={append,list}, outcome={success,error,skipped}
	AlertsPublished  *prometheus.CounterVec // labels: outcome={success,error}

	PredictorAvailable prometheus.Gauge
	MirrorEnabled      prometheus.Gauge

	// HTTP.
	RequestDuration *prometheus.HistogramVec // labels: method, route, status
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.EventsCreated,
		m.CreateFailures,
		m.PrimaryReads,
		m.Predictions,
		m.MirrorOperations,
		m.AlertsPublished,
		m.PredictorAvailable,
		m.MirrorEnabled,
		m.RequestDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		EventsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_created_total",
			Help:      "Total events stored in the primary store.",
		}),
		CreateFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "create_failures_total",
			Help:      "Create requests that failed on the primary insert.",
		}),
		PrimaryReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "primary_reads_total",
			Help:      "Primary store reads by operation and outcome.",
		}, []string{"op", "outcome"}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Severity predictions by outcome.",
		}, []string{"outcome"}),
		MirrorOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_operations_total",
			Help:      "Mirror store operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		AlertsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "High-severity alerts by publish outcome.",
		}, []string{"outcome"}),
		PredictorAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "predictor_available",
			Help:      "1 when a severity model is loaded, 0 otherwise.",
		}),
		MirrorEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mirror_enabled",
			Help:      "1 when a mirror store client is initialized, 0 otherwise.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by method, route and status.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route", "status"}),
	}
}
