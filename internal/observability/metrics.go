package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_sales"

// Metrics holds the Prometheus counters, histograms, and gauges for loads,
// view computation and the query API.
type Metrics struct {
	// Raw ingestion metrics.
	LoadsTotal   *prometheus.CounterVec   // labels: entity, outcome={success,error}
	RowsLoaded   *prometheus.CounterVec   // labels: entity
	LoadDuration *prometheus.HistogramVec // labels: entity

	// View metrics.
	ViewDuration *prometheus.HistogramVec // labels: view
	ExcludedRows *prometheus.GaugeVec     // labels: view, reason
	ViewRows     *prometheus.GaugeVec     // labels: view

	// Query API metrics.
	QueriesTotal  *prometheus.CounterVec   // labels: route, outcome={success,invalid,error,timeout}
	QueryDuration *prometheus.HistogramVec // labels: route

	// Export metrics.
	RowsExported prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		LoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Raw entity loads by entity and outcome.",
		}, []string{"entity", "outcome"}),
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Rows written to raw tables.",
		}, []string{"entity"}),
		LoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of one raw entity load, parse through commit.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"entity"}),
		ViewDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_duration_seconds",
			Help:      "Duration of snapshot read plus view computation.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"view"}),
		ExcludedRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "excluded_rows",
			Help:      "Rows dropped by harmonization joins in the latest computation, by reason.",
		}, []string{"view", "reason"}),
		ViewRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "view_rows",
			Help:      "Rows produced by each view in the latest computation.",
		}, []string{"view"}),
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "API queries by route and outcome.",
		}, []string{"route", "outcome"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "API query latency by route.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}, []string{"route"}),
		RowsExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_exported_total",
			Help:      "Weather-Sales rows published to the sink topic.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.LoadsTotal,
		m.RowsLoaded,
		m.LoadDuration,
		m.ViewDuration,
		m.ExcludedRows,
		m.ViewRows,
		m.QueriesTotal,
		m.QueryDuration,
		m.RowsExported,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
