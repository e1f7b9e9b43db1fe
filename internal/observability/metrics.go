package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// event-extraction pipeline and its external capabilities.
type Metrics struct {
	ArticlesProcessed prometheus.Counter
	RelevantArticles  prometheus.Counter
	EventsExtracted   prometheus.Counter
	EventsAppended    prometheus.Counter
	StageErrors       *prometheus.CounterVec // labels: stage={classify,extract,resolve,estimate}
	PipelineDuration  prometheus.Histogram

	// Completion (text generation) metrics.
	CompletionRequests *prometheus.CounterVec // labels: outcome={success,error}
	CompletionDuration prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Store metrics.
	DateNormalizations *prometheus.CounterVec // labels: source={local,model,fallback}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.ArticlesProcessed,
		m.RelevantArticles,
		m.EventsExtracted,
		m.EventsAppended,
		m.StageErrors,
		m.PipelineDuration,
		m.CompletionRequests,
		m.CompletionDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.DateNormalizations,
	)

	return m
}

// NewMetricsForTesting creates Metrics without touching the default registry,
// avoiding "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ArticlesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "traffic_finder",
			Name:      "articles_processed_total",
			Help:      "Total articles fed into the pipeline.",
		}),
		RelevantArticles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "traffic_finder",
			Name:      "relevant_articles_total",
			Help:      "Articles classified as traffic-relevant.",
		}),
		EventsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "traffic_finder",
			Name:      "events_extracted_total",
			Help:      "Structured event candidates produced by the extractor.",
		}),
		EventsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "traffic_finder",
			Name:      "events_appended_total",
			Help:      "Events written to the persistent store.",
		}),
		StageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "traffic_finder",
			Name:      "stage_errors_total",
			Help:      "Recoverable per-unit failures by pipeline stage.",
		}, []string{"stage"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "traffic_finder",
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of one full pipeline run over a batch of articles.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		CompletionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "traffic_finder",
			Name:      "completion_requests_total",
			Help:      "Text-generation API requests by outcome.",
		}, []string{"outcome"}),
		CompletionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "traffic_finder",
			Name:      "completion_duration_seconds",
			Help:      "Text-generation API request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "traffic_finder",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "traffic_finder",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		DateNormalizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "traffic_finder",
			Name:      "date_normalizations_total",
			Help:      "Date text normalizations by resolution source.",
		}, []string{"source"}),
	}
}
