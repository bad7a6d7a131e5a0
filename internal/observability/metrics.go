package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spatial_patterns"

// Metrics holds the Prometheus counters, histograms, and gauges for the detection service.
type Metrics struct {
	RequestsConsumed prometheus.Counter
	ResultsProduced  prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Detection metrics.
	PatternsDetected *prometheus.CounterVec // labels: pattern={P1..P5}
	HTTPDetections   *prometheus.CounterVec // labels: endpoint={sync,async,all}, status={ok,bad_request}

	// Road network metrics.
	RoadRequests       *prometheus.CounterVec // labels: outcome={success,error}
	RoadCache          *prometheus.CounterVec // labels: tier={memory,redis}, result={hit,miss,error}
	RoadAPIDuration    prometheus.Histogram
	RoadNetworkEnabled prometheus.Gauge

	// Content density lookups.
	ContentLookups *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_consumed_total",
			Help:      "Total detection requests read from the source topic.",
		}),
		ResultsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_produced_total",
			Help:      "Total detection results written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total requests that could not be parsed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-detect-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PatternsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patterns_detected_total",
			Help:      "Detections that cleared the confidence threshold, by pattern.",
		}, []string{"pattern"}),
		HTTPDetections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_detections_total",
			Help:      "HTTP detection requests by endpoint and status.",
		}, []string{"endpoint", "status"}),
		RoadRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "road_requests_total",
			Help:      "Overpass road network queries by outcome.",
		}, []string{"outcome"}),
		RoadCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "road_cache_total",
			Help:      "Road network cache lookups by tier and result.",
		}, []string{"tier", "result"}),
		RoadAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "road_api_duration_seconds",
			Help:      "Overpass API request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}),
		RoadNetworkEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "road_network_enabled",
			Help:      "1 when road network analysis (P1) is enabled, 0 otherwise.",
		}),
		ContentLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_lookups_total",
			Help:      "Content density lookups by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RequestsConsumed,
		m.ResultsProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.PatternsDetected,
		m.HTTPDetections,
		m.RoadRequests,
		m.RoadCache,
		m.RoadAPIDuration,
		m.RoadNetworkEnabled,
		m.ContentLookups,
	}
}
