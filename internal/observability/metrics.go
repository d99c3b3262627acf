package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// catalog client and the feed daemon.
type Metrics struct {
	APIRequests *prometheus.CounterVec   // labels: endpoint={search,count,detail,content}, outcome={success,error,retry}
	APIDuration *prometheus.HistogramVec // labels: endpoint

	SearchSegments prometheus.Histogram
	EventsFetched  prometheus.Counter
	DetailFailures prometheus.Counter

	// Feed daemon metrics.
	FeedRunning      prometheus.Gauge
	FeedPublished    prometheus.Counter
	FeedPollErrors   prometheus.Counter
	FeedPollDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_catalog",
			Name:      "api_requests_total",
			Help:      "ComCat API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quake_catalog",
			Name:      "api_request_duration_seconds",
			Help:      "ComCat API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"endpoint"}),
		SearchSegments: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_catalog",
			Name:      "search_segments",
			Help:      "Number of time segments planned per search.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50, 100},
		}),
		EventsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_catalog",
			Name:      "events_fetched_total",
			Help:      "Total summary events returned across all searches.",
		}),
		DetailFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_catalog",
			Name:      "detail_failures_total",
			Help:      "Per-event detail fetches skipped after failing.",
		}),
		FeedRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_catalog",
			Name:      "feed_running",
			Help:      "1 when the feed poll loop is active, 0 when shut down.",
		}),
		FeedPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_catalog",
			Name:      "feed_published_total",
			Help:      "Total events published to the feed topic.",
		}),
		FeedPollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_catalog",
			Name:      "feed_poll_errors_total",
			Help:      "Total failed feed poll cycles.",
		}),
		FeedPollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_catalog",
			Name:      "feed_poll_duration_seconds",
			Help:      "Duration of a complete poll-and-publish cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}

	prometheus.MustRegister(
		m.APIRequests,
		m.APIDuration,
		m.SearchSegments,
		m.EventsFetched,
		m.DetailFailures,
		m.FeedRunning,
		m.FeedPublished,
		m.FeedPollErrors,
		m.FeedPollDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		APIRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_catalog", Name: "api_requests_total"}, []string{"endpoint", "outcome"}),
		APIDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "quake_catalog", Name: "api_request_duration_seconds"}, []string{"endpoint"}),
		SearchSegments:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quake_catalog", Name: "search_segments"}),
		EventsFetched:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_catalog", Name: "events_fetched_total"}),
		DetailFailures:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_catalog", Name: "detail_failures_total"}),
		FeedRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quake_catalog", Name: "feed_running"}),
		FeedPublished:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_catalog", Name: "feed_published_total"}),
		FeedPollErrors:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_catalog", Name: "feed_poll_errors_total"}),
		FeedPollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quake_catalog", Name: "feed_poll_duration_seconds"}),
	}
}
