package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the extrusion pipeline.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: stage={idle,validating_inputs,...,done}
	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge

	// Feature service metrics.
	FetchAttempts *prometheus.CounterVec // labels: outcome={success,truncated,invalid_payload,transport}
	FetchDuration prometheus.Histogram
	Tiles         *prometheus.CounterVec // labels: outcome={ok,failed,unparsable}

	// Aggregation and reconstruction metrics.
	FeaturesFetched   prometheus.Counter
	DuplicatesDropped prometheus.Counter
	FeaturesSkipped   prometheus.Counter
	PolygonFailures   prometheus.Counter
	SolidsBuilt       prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.PipelineRunning,
		m.FetchAttempts,
		m.FetchDuration,
		m.Tiles,
		m.FeaturesFetched,
		m.DuplicatesDropped,
		m.FeaturesSkipped,
		m.PolygonFailures,
		m.SolidsBuilt,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "footprint",
			Name:      "runs_total",
			Help:      "Pipeline runs by the stage they finished in.",
		}, []string{"stage"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "footprint",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-and-reconstruct run.",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "footprint",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "footprint",
			Name:      "wfs_fetch_attempts_total",
			Help:      "WFS GetFeature attempts by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "footprint",
			Name:      "wfs_fetch_duration_seconds",
			Help:      "Duration of a single WFS GetFeature attempt.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		}),
		Tiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "footprint",
			Name:      "tiles_total",
			Help:      "Tiles processed by outcome.",
		}, []string{"outcome"}),
		FeaturesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "footprint",
			Name:      "features_fetched_total",
			Help:      "Features decoded from tile responses, before deduplication.",
		}),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "footprint",
			Name:      "duplicates_dropped_total",
			Help:      "Features dropped because their id was already seen in the run.",
		}),
		FeaturesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "footprint",
			Name:      "features_skipped_total",
			Help:      "Features that could not be decoded or had unsupported geometry.",
		}),
		PolygonFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "footprint",
			Name:      "polygon_failures_total",
			Help:      "Polygons skipped because surface or extrusion construction failed.",
		}),
		SolidsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "footprint",
			Name:      "solids_built_total",
			Help:      "Closed solids produced.",
		}),
	}
}
