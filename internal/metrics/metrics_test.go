package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CountUpload(KindVideo, nil)
	m.CountUpload(KindVideo, errors.New("boom"))
	m.CountUpload(KindThumbnail, nil)
	m.ObserveStage(StageProbe, time.Now().Add(-time.Second))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "tubely_uploads_total")
	assert.Contains(t, names, "tubely_pipeline_stage_seconds")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(KindVideo, ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(KindVideo, ResultFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(KindThumbnail, ResultSuccess)))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CountUpload(KindVideo, nil)
		m.ObserveStage(StageRemux, time.Now())
	})
}
