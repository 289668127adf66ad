package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// monitoring service.
type Metrics struct {
	ReadingsIngested prometheus.Counter
	IngestErrors     prometheus.Counter
	IngesterRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	ForecastsGenerated  prometheus.Counter
	ForecastProbability prometheus.Histogram

	AlertsRaised *prometheus.CounterVec // labels: type={high_risk,forecast,sensor}
	AuthDenials  *prometheus.CounterVec // labels: kind={unauthenticated,access_denied}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReadingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rockfall",
			Name:      "readings_ingested_total",
			Help:      "Total sensor readings persisted from the source topic.",
		}),
		IngestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rockfall",
			Name:      "ingest_errors_total",
			Help:      "Total sensor messages rejected during parsing or validation.",
		}),
		IngesterRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rockfall",
			Name:      "ingester_running",
			Help:      "1 when the ingest loop is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rockfall",
			Name:      "ingest_batch_size",
			Help:      "Number of sensor messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rockfall",
			Name:      "ingest_batch_duration_seconds",
			Help:      "Duration of a complete batch extract-parse-store cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ForecastsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rockfall",
			Name:      "forecasts_generated_total",
			Help:      "Total risk forecasts produced and persisted.",
		}),
		ForecastProbability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rockfall",
			Name:      "forecast_probability",
			Help:      "Distribution of generated forecast probabilities.",
			Buckets:   []float64{30, 45, 50, 55, 65, 70, 75, 90, 95},
		}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rockfall",
			Name:      "alerts_raised_total",
			Help:      "Alerts created, by trigger type.",
		}, []string{"type"}),
		AuthDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rockfall",
			Name:      "auth_denials_total",
			Help:      "Operations rejected by the access gate, by kind.",
		}, []string{"kind"}),
	}

	prometheus.MustRegister(
		m.ReadingsIngested,
		m.IngestErrors,
		m.IngesterRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ForecastsGenerated,
		m.ForecastProbability,
		m.AlertsRaised,
		m.AuthDenials,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReadingsIngested:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "rockfall", Name: "readings_ingested_total"}),
		IngestErrors:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "rockfall", Name: "ingest_errors_total"}),
		IngesterRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "rockfall", Name: "ingester_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "rockfall", Name: "ingest_batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "rockfall", Name: "ingest_batch_duration_seconds"}),
		ForecastsGenerated:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "rockfall", Name: "forecasts_generated_total"}),
		ForecastProbability:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "rockfall", Name: "forecast_probability"}),
		AlertsRaised:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "rockfall", Name: "alerts_raised_total"}, []string{"type"}),
		AuthDenials:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "rockfall", Name: "auth_denials_total"}, []string{"kind"}),
	}
}
