package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "heat_emissions"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Dataset load metrics.
	DatasetLoads        *prometheus.CounterVec // labels: outcome={success,error}
	RowsParsed          prometheus.Gauge
	RowsSkipped         prometheus.Gauge
	CountriesLoaded     prometheus.Gauge
	DatasetLoadDuration prometheus.Histogram

	// Lookup metrics.
	LookupRequests    *prometheus.CounterVec   // labels: method={geocode,forecast}, outcome={success,error,empty}
	LookupCache       *prometheus.CounterVec   // labels: method={geocode}, result={hit,miss}
	LookupAPIDuration *prometheus.HistogramVec // labels: method={geocode,forecast}
	LookupEnabled     prometheus.Gauge

	ComparisonsServed *prometheus.CounterVec // labels: source
}

func newMetrics() *Metrics {
	return &Metrics{
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts by outcome.",
		}, []string{"outcome"}),
		RowsParsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows_parsed",
			Help:      "Rows decoded by the most recent successful load.",
		}),
		RowsSkipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows_skipped",
			Help:      "Malformed rows skipped by the most recent successful load.",
		}),
		CountriesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_countries",
			Help:      "Countries with an intensity history in the current dataset.",
		}),
		DatasetLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of a complete fetch-parse-build cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		LookupRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_requests_total",
			Help:      "Geocoding and forecast API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		LookupCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_cache_total",
			Help:      "Lookup cache queries by method and result.",
		}, []string{"method", "result"}),
		LookupAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_api_duration_seconds",
			Help:      "Open-Meteo API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		LookupEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lookup_enabled",
			Help:      "1 when location and weather lookups are enabled, 0 otherwise.",
		}),
		ComparisonsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparisons_served_total",
			Help:      "Emissions comparisons computed by heat source.",
		}, []string{"source"}),
	}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DatasetLoads,
		m.RowsParsed,
		m.RowsSkipped,
		m.CountriesLoaded,
		m.DatasetLoadDuration,
		m.LookupRequests,
		m.LookupCache,
		m.LookupAPIDuration,
		m.LookupEnabled,
		m.ComparisonsServed,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
