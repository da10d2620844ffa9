package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	DetectionsFetched *prometheus.CounterVec // labels: source
	RowsRejected      *prometheus.CounterVec // labels: stage={normalize,enrich,fact_hotspot,fact_weather}
	RowsLoaded        *prometheus.CounterVec // labels: table
	StoreErrors       prometheus.Counter
	PipelineRunning   prometheus.Gauge
	RunsTotal         *prometheus.CounterVec // labels: verdict={SUCCESS,PARTIAL,FAILED,NO_DATA,ERROR}
	RunDuration       prometheus.Histogram

	// Enrichment lookups.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={resolved,rejected,error}
	WeatherRequests *prometheus.CounterVec // labels: outcome={resolved,empty,error}
	CacheLookups    *prometheus.CounterVec // labels: cache={geocode,weather}, result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.DetectionsFetched,
		m.RowsRejected,
		m.RowsLoaded,
		m.StoreErrors,
		m.PipelineRunning,
		m.RunsTotal,
		m.RunDuration,
		m.GeocodeRequests,
		m.WeatherRequests,
		m.CacheLookups,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DetectionsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotspot_etl",
			Name:      "detections_fetched_total",
			Help:      "Raw detections retrieved per FIRMS source.",
		}, []string{"source"}),
		RowsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotspot_etl",
			Name:      "rows_rejected_total",
			Help:      "Rows dropped per pipeline stage (duplicates, unresolvable coordinates, missing dimensions).",
		}, []string{"stage"}),
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotspot_etl",
			Name:      "rows_loaded_total",
			Help:      "Rows written to the analytical store per table.",
		}, []string{"table"}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hotspot_etl",
			Name:      "store_errors_total",
			Help:      "Failed statements against the analytical store.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hotspot_etl",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in progress.",
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotspot_etl",
			Name:      "runs_total",
			Help:      "Completed pipeline runs by quality verdict.",
		}, []string{"verdict"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hotspot_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of one extract-stage-transform-load cycle.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotspot_etl",
			Name:      "geocode_requests_total",
			Help:      "BMKG geocoding lookups by outcome.",
		}, []string{"outcome"}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotspot_etl",
			Name:      "weather_requests_total",
			Help:      "Visual Crossing weather lookups by outcome.",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotspot_etl",
			Name:      "cache_lookups_total",
			Help:      "Enrichment cache lookups by store and result.",
		}, []string{"cache", "result"}),
	}
}
