package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "incident_reports"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	ReportsLoaded    prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Report set metrics.
	ReportsHeld         prometheus.Gauge
	LocationsAggregated prometheus.Gauge
	AggregationDuration prometheus.Histogram
	SnapshotPublishes   *prometheus.CounterVec // labels: outcome={success,error}
	FeedRuns            *prometheus.CounterVec // labels: outcome={success,error}

	// Alert feed metrics.
	AlertFeedRuns *prometheus.CounterVec // labels: outcome={success,error}
	AlertsStored  prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		ReportsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_loaded_total",
			Help:      "Total reports upserted into the report set.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total messages that could not be parsed into a report.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the ingest pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ReportsHeld: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reports_held",
			Help:      "Reports currently held in the report set.",
		}),
		LocationsAggregated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "locations_aggregated",
			Help:      "Distinct locations in the latest snapshot.",
		}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of a full aggregation pass over the report set.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		SnapshotPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_publishes_total",
			Help:      "Snapshot publishes to the sink topic by outcome.",
		}, []string{"outcome"}),
		FeedRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mock_feed_runs_total",
			Help:      "Scheduled mock feed refreshes by outcome.",
		}, []string{"outcome"}),
		AlertFeedRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_feed_runs_total",
			Help:      "Scheduled alert feed refreshes by outcome.",
		}, []string{"outcome"}),
		AlertsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_stored_total",
			Help:      "Generated alerts stored after duplicate filtering.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.ReportsLoaded,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ReportsHeld,
		m.LocationsAggregated,
		m.AggregationDuration,
		m.SnapshotPublishes,
		m.FeedRuns,
		m.AlertFeedRuns,
		m.AlertsStored,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MessagesConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "messages_consumed_total"}),
		ReportsLoaded:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "reports_loaded_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_processing_duration_seconds"}),
		ReportsHeld:             prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "reports_held"}),
		LocationsAggregated:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "locations_aggregated"}),
		AggregationDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "aggregation_duration_seconds"}),
		SnapshotPublishes:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "snapshot_publishes_total"}, []string{"outcome"}),
		FeedRuns:                prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "mock_feed_runs_total"}, []string{"outcome"}),
		AlertFeedRuns:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "alert_feed_runs_total"}, []string{"outcome"}),
		AlertsStored:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "alerts_stored_total"}),
		GeocodeRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geocode_requests_total"}, []string{"method", "outcome"}),
		GeocodeCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geocode_cache_total"}, []string{"method", "result"}),
		GeocodeAPIDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "geocode_api_duration_seconds"}, []string{"method"}),
		GeocodeEnabled:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "geocode_enabled"}),
	}
}
