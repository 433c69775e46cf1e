package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline stage labels.
const (
	StageStage   = "stage"
	StageProbe   = "probe"
	StageRemux   = "remux"
	StageVerify  = "verify"
	StagePublish = "publish"
	StagePersist = "persist"
)

// Upload kinds and results.
const (
	KindVideo     = "video"
	KindThumbnail = "thumbnail"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics groups the collectors the upload pipeline reports to.
type Metrics struct {
	Uploads             *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	CleanupFailures     prometheus.Counter
	InconsistentRecords prometheus.Counter
	InFlight            prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests usually want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tubely",
			Name:      "uploads_total",
			Help:      "Completed upload operations by kind and result.",
		}, []string{"kind", "result"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tubely",
			Name:      "pipeline_stage_seconds",
			Help:      "Time spent in each upload pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 9),
		}, []string{"stage"}),
		CleanupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tubely",
			Name:      "cleanup_failures_total",
			Help:      "Staged files that could not be removed.",
		}),
		InconsistentRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tubely",
			Name:      "inconsistent_records_total",
			Help:      "Artifacts published whose video record could not be updated.",
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tubely",
			Name:      "pipelines_in_flight",
			Help:      "Upload pipelines currently holding a processing slot.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Uploads, m.StageDuration, m.CleanupFailures, m.InconsistentRecords, m.InFlight)
	}
	return m
}

// ObserveStage records the duration of a stage that started at start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// CountUpload increments the upload counter for kind, labelled by err.
func (m *Metrics) CountUpload(kind string, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.Uploads.WithLabelValues(kind, result).Inc()
}
