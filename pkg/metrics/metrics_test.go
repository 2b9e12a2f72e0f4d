package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	at := time.Unix(1700000000, 0)

	r.ObserveStage("run", 20*time.Millisecond)
	r.Published("sk_sol", 3, 1, 0)
	r.Published("sk_sol", 1, 0, 2)
	r.RunFinished("sk_sol", nil, at)
	r.RunFinished("", errors.New("boom"), at)

	assert.Equal(t, 4.0, testutil.ToFloat64(r.written.WithLabelValues("sk_sol")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.skipped.WithLabelValues("sk_sol")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.warnings.WithLabelValues("sk_sol")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("sk_sol", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("unknown", ResultFailure)))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(r.last.WithLabelValues(ResultFailure)))

	expected := `
# HELP vnacal_runs_total Calibration runs by method and result.
# TYPE vnacal_runs_total counter
vnacal_runs_total{method="sk_sol",result="success"} 1
vnacal_runs_total{method="unknown",result="failure"} 1
`
	require.NoError(t, testutil.GatherAndCompare(r.Gatherer(), strings.NewReader(expected), "vnacal_runs_total"))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveStage("load", time.Second)
		r.Published("x", 1, 1, 1)
		r.RunFinished("x", nil, time.Now())
	})
}

func TestWriteToTextfile(t *testing.T) {
	r := NewRecorder()
	r.Published("umtrl", 14, 0, 0)

	path := filepath.Join(t.TempDir(), "vnacal.prom")
	require.NoError(t, r.WriteToTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `vnacal_results_written_total{method="umtrl"} 14`)

	assert.Error(t, r.WriteToTextfile(filepath.Join(t.TempDir(), "missing", "vnacal.prom")))
}
