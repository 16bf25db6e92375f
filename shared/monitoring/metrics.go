package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid_url"
	OutcomeNoKey   = "missing_credential"
	OutcomeError   = "error"
)

// Metrics bundles the pipeline collectors exposed on /metrics.
type Metrics struct {
	RunsTotal         *prometheus.CounterVec
	RunDurationSec    prometheus.Histogram
	MetadataFallbacks prometheus.Counter
	AnalysisFallbacks prometheus.Counter
	ReportsBySource   *prometheus.CounterVec
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retention_runs_total",
			Help: "Total number of pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDurationSec: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "retention_run_duration_seconds",
			Help:    "Pipeline run duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		MetadataFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retention_metadata_fallbacks_total",
			Help: "Total number of runs that used the demo video record.",
		}),
		AnalysisFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retention_analysis_fallbacks_total",
			Help: "Total number of failed analysis requests replaced by the mock report.",
		}),
		ReportsBySource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retention_reports_total",
			Help: "Total number of reports produced by generator.",
		}, []string{"source"}),
	}

	registry.MustRegister(
		m.RunsTotal,
		m.RunDurationSec,
		m.MetadataFallbacks,
		m.AnalysisFallbacks,
		m.ReportsBySource,
	)

	return m
}
