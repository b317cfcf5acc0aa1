package metrics

import (
	"os"
	"path/filepath"
	"time"

	"gograde/domain/stage"
	"gograde/internal/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the per-run pipeline metrics on a private registry, so that
// every run (and every test) starts from zero
type Recorder struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageTotal    *prometheus.CounterVec
	stageRows     *prometheus.GaugeVec
	stagePValue   *prometheus.GaugeVec
	runSuccess    prometheus.Gauge
}

// NewRecorder registers the pipeline metrics on a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gograde_stage_duration_seconds",
			Help:    "Stage wall time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
		}, []string{"stage"}),
		stageTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gograde_stage_total",
			Help: "Stage executions by result",
		}, []string{"stage", "result"}),
		stageRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gograde_stage_rows",
			Help: "Rows processed by the last execution of a stage",
		}, []string{"stage"}),
		stagePValue: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gograde_stage_p_value",
			Help: "Headline p-value reported by a test stage",
		}, []string{"stage"}),
		runSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gograde_run_success",
			Help: "1 when the last run finished every stage",
		}),
	}
}

// ObserveStage records one stage result
func (r *Recorder) ObserveStage(res stage.StageResult) {
	name := string(res.StageName)
	r.stageDuration.WithLabelValues(name).Observe((time.Duration(res.Metrics.DurationMs) * time.Millisecond).Seconds())

	result := "success"
	if !res.Success {
		result = "failure"
	}
	r.stageTotal.WithLabelValues(name, result).Inc()
	r.stageRows.WithLabelValues(name).Set(float64(res.Metrics.ProcessedCount))
	if res.Metrics.PValue != nil {
		r.stagePValue.WithLabelValues(name).Set(*res.Metrics.PValue)
	}
}

// ObserveRun records the overall outcome
func (r *Recorder) ObserveRun(success bool) {
	if success {
		r.runSuccess.Set(1)
	} else {
		r.runSuccess.Set(0)
	}
}

// WriteTextfile writes the registry in the node_exporter textfile format
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create metrics directory for %s", path)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(err, "failed to write metrics textfile %s", path)
	}
	return nil
}
