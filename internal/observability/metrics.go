package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// traffic engine.
type Metrics struct {
	RefreshesTotal    prometheus.Counter
	RefreshErrors     prometheus.Counter
	RecordsNormalized prometheus.Counter
	RecordsDegraded   prometheus.Counter
	EventsToday       prometheus.Gauge
	EventsFuture      prometheus.Gauge
	PipelineRunning   prometheus.Gauge

	// Live ticker metrics.
	TicksTotal       prometheus.Counter
	TickDuration     prometheus.Histogram
	GlobalMaxScore   prometheus.Gauge
	ReportsPublished prometheus.Counter
	PublishErrors    prometheus.Counter

	// Wall-clock heartbeat, updated by the independent 1s display ticker.
	ClockSeconds prometheus.Gauge
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RefreshesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valet_traffic",
			Name:      "refreshes_total",
			Help:      "Total completed data refresh cycles.",
		}),
		RefreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valet_traffic",
			Name:      "refresh_errors_total",
			Help:      "Total refresh cycles that failed on a mandatory source.",
		}),
		RecordsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valet_traffic",
			Name:      "records_normalized_total",
			Help:      "Total raw records normalized into canonical events.",
		}),
		RecordsDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valet_traffic",
			Name:      "records_degraded_total",
			Help:      "Total records degraded to pending due to malformed source data.",
		}),
		EventsToday: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "valet_traffic",
			Name:      "events_today",
			Help:      "Events in the today bucket after the last refresh.",
		}),
		EventsFuture: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "valet_traffic",
			Name:      "events_future",
			Help:      "Events in the future bucket after the last refresh.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "valet_traffic",
			Name:      "pipeline_running",
			Help:      "1 when the refresh pipeline is active, 0 when shut down.",
		}),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valet_traffic",
			Name:      "ticks_total",
			Help:      "Total live scoring ticks evaluated.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "valet_traffic",
			Name:      "tick_duration_seconds",
			Help:      "Duration of one full re-scoring pass over today's events.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		GlobalMaxScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "valet_traffic",
			Name:      "global_max_score",
			Help:      "Maximum congestion score across today's events at the last tick.",
		}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valet_traffic",
			Name:      "reports_published_total",
			Help:      "Total tick reports delivered to the configured publisher.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valet_traffic",
			Name:      "publish_errors_total",
			Help:      "Total tick report publish failures.",
		}),
		ClockSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "valet_traffic",
			Name:      "clock_seconds",
			Help:      "Wall-clock heartbeat from the display ticker, as a Unix timestamp.",
		}),
	}

	prometheus.MustRegister(
		m.RefreshesTotal,
		m.RefreshErrors,
		m.RecordsNormalized,
		m.RecordsDegraded,
		m.EventsToday,
		m.EventsFuture,
		m.PipelineRunning,
		m.TicksTotal,
		m.TickDuration,
		m.GlobalMaxScore,
		m.ReportsPublished,
		m.PublishErrors,
		m.ClockSeconds,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RefreshesTotal:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "valet_traffic", Name: "refreshes_total"}),
		RefreshErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "valet_traffic", Name: "refresh_errors_total"}),
		RecordsNormalized: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "valet_traffic", Name: "records_normalized_total"}),
		RecordsDegraded:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "valet_traffic", Name: "records_degraded_total"}),
		EventsToday:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "valet_traffic", Name: "events_today"}),
		EventsFuture:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "valet_traffic", Name: "events_future"}),
		PipelineRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "valet_traffic", Name: "pipeline_running"}),
		TicksTotal:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "valet_traffic", Name: "ticks_total"}),
		TickDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "valet_traffic", Name: "tick_duration_seconds"}),
		GlobalMaxScore:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "valet_traffic", Name: "global_max_score"}),
		ReportsPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "valet_traffic", Name: "reports_published_total"}),
		PublishErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "valet_traffic", Name: "publish_errors_total"}),
		ClockSeconds:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "valet_traffic", Name: "clock_seconds"}),
	}
}
