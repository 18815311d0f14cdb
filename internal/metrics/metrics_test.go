package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rwscout/internal/model"
)

func TestObserveProbe(t *testing.T) {
	m := New()
	m.ObserveProbe(model.PlatformResy, model.Succeeded([]model.Slot{{Time: "18:00"}}), 20*time.Millisecond)
	m.ObserveProbe(model.PlatformResy, model.Succeeded(nil), 10*time.Millisecond)
	m.ObserveProbe(model.PlatformOpenTable, model.Failed("x"), time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("resy", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("resy", "empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("opentable", "failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ProbeDuration))
}

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun(model.RunCompleted)
	m.ObserveRun(model.RunCancelled)
	m.ObserveRun(model.RunCompleted)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("cancelled")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveProbe(model.PlatformResy, model.Succeeded(nil), time.Millisecond)
		m.ObserveRun(model.RunCompleted)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRun(model.RunCompleted)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), `rwscout_runs_total{state="completed"} 1`))
}
