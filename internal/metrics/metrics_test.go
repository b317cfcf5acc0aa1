package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"gograde/domain/stage"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveStageCountsByResult(t *testing.T) {
	r := NewRecorder()
	p := 0.012

	r.ObserveStage(stage.StageResult{StageName: stage.StageClean, Success: true,
		Metrics: stage.StageMetrics{ProcessedCount: 649, DurationMs: 12}})
	r.ObserveStage(stage.StageResult{StageName: stage.StageChiSquare, Success: true,
		Metrics: stage.StageMetrics{ProcessedCount: 640, DurationMs: 3, PValue: &p}})
	r.ObserveStage(stage.StageResult{StageName: stage.StageANOVA, Success: false})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.stageTotal.WithLabelValues("clean", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stageTotal.WithLabelValues("anova", "failure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.stageTotal.WithLabelValues("anova", "success")))
	assert.Equal(t, 649.0, testutil.ToFloat64(r.stageRows.WithLabelValues("clean")))
	assert.Equal(t, p, testutil.ToFloat64(r.stagePValue.WithLabelValues("chisquare")))
	assert.Equal(t, 3, testutil.CollectAndCount(r.stageDuration))
}

func TestRecordersAreIsolated(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	a.ObserveRun(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.runSuccess))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.runSuccess))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveStage(stage.StageResult{StageName: stage.StageRegression, Success: true,
		Metrics: stage.StageMetrics{ProcessedCount: 10, DurationMs: 40}})
	r.ObserveRun(true)

	path := filepath.Join(t.TempDir(), "metrics", "gograde.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `gograde_stage_total{result="success",stage="regression"} 1`)
	assert.Contains(t, text, "gograde_run_success 1")

	assert.NoError(t, r.WriteTextfile(""))
}
