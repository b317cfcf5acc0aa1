package app

import (
	"context"
	"fmt"
	"time"

	"gograde/adapters/chart"
	"gograde/adapters/tabular"
	"gograde/domain/core"
	"gograde/domain/dataset"
	"gograde/domain/stage"
	"gograde/internal"
	"gograde/internal/analysis"
	"gograde/internal/config"
	"gograde/internal/errors"
	"gograde/internal/metrics"
	"gograde/internal/prep"
	"gograde/internal/storage"
)

// Pipeline sequences the stages of one run: clean, encode, describe,
// chisquare, anova, regression. The first failing stage aborts the run.
type Pipeline struct {
	cfg      *config.Config
	store    *storage.LocalFileStorage
	renderer *chart.Renderer // nil when rendering is off
	printer  *Printer
	metrics  *metrics.Recorder
	logger   *internal.Logger
}

// NewPipeline wires a pipeline from configuration
func NewPipeline(cfg *config.Config, logger *internal.Logger) *Pipeline {
	if logger == nil {
		logger = internal.Discard
	}
	store := storage.NewLocalFileStorage("")
	p := &Pipeline{
		cfg:     cfg,
		store:   store,
		printer: NewPrinter(nil),
		metrics: metrics.NewRecorder(),
		logger:  logger.WithPrefix("Pipeline"),
	}
	if cfg.Render.Enabled {
		p.renderer = chart.NewRenderer(store, cfg.Paths.Figures, logger)
	}
	return p
}

// runState carries what one stage hands to the next
type runState struct {
	result   *stage.PipelineResult
	cleaned  *dataset.Frame
	artifact *dataset.Frame
}

type stageFunc func(ctx context.Context, st *runState) (stage.StageMetrics, error)

// Run executes the full default plan
func (p *Pipeline) Run(ctx context.Context) (*stage.PipelineResult, error) {
	return p.RunPlan(ctx, stage.DefaultPlan())
}

// RunPlan executes the given stages in plan order. On failure the partial
// result is returned together with a *stage.StageError.
func (p *Pipeline) RunPlan(ctx context.Context, plan *stage.StagePlan) (*stage.PipelineResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid stage plan")
	}

	runID := core.NewRunID()
	st := &runState{result: stage.NewPipelineResult(runID, plan)}
	p.logger.Info("run %s: %d stages, plan %s", runID, len(plan.Stages), plan.Hash().Short())

	if err := p.removeStaleOutputs(ctx, plan); err != nil {
		return st.result, errors.Wrap(err, "failed to remove stale outputs")
	}

	var runErr error
	for _, spec := range plan.Stages {
		if err := ctx.Err(); err != nil {
			runErr = &stage.StageError{Stage: spec.Name, Err: err}
			break
		}
		fn, ok := p.stageFuncs()[spec.Name]
		if !ok {
			runErr = &stage.StageError{Stage: spec.Name, Err: errors.InternalError("unknown stage")}
			break
		}

		p.logger.Info("stage %s: start", spec.Name)
		start := time.Now()
		m, err := p.runStage(ctx, spec, fn, st)
		m.DurationMs = time.Since(start).Milliseconds()

		res := stage.StageResult{StageName: spec.Name, Success: err == nil, Metrics: m}
		if err != nil {
			res.Error = err.Error()
		}
		st.result.AddResult(res)
		p.metrics.ObserveStage(res)

		if err != nil {
			p.logger.Error("stage %s failed after %dms: %v", spec.Name, m.DurationMs, err)
			runErr = &stage.StageError{Stage: spec.Name, Err: err}
			break
		}
		p.logger.Info("stage %s: done in %dms (%d rows)", spec.Name, m.DurationMs, m.ProcessedCount)
	}

	p.metrics.ObserveRun(runErr == nil)
	if err := p.metrics.WriteTextfile(p.cfg.Paths.MetricsTextfile); err != nil {
		p.logger.Warn("metrics: %v", err)
	}
	return st.result, runErr
}

// runStage gives stats stages the artifact before they run
func (p *Pipeline) runStage(ctx context.Context, spec stage.StageSpec, fn stageFunc, st *runState) (stage.StageMetrics, error) {
	if spec.Kind == stage.StageKindStats {
		if err := p.loadArtifact(ctx, st); err != nil {
			return stage.StageMetrics{}, err
		}
	}
	return fn(ctx, st)
}

func (p *Pipeline) stageFuncs() map[stage.StageName]stageFunc {
	return map[stage.StageName]stageFunc{
		stage.StageClean:      p.clean,
		stage.StageEncode:     p.encode,
		stage.StageDescribe:   p.describe,
		stage.StageChiSquare:  p.chiSquare,
		stage.StageANOVA:      p.anova,
		stage.StageRegression: p.regression,
	}
}

// removeStaleOutputs deletes the outputs of a previous run of the planned stages
func (p *Pipeline) removeStaleOutputs(ctx context.Context, plan *stage.StagePlan) error {
	var files []string
	for _, s := range plan.Stages {
		if s.Kind == stage.StageKindPrep {
			files = append(files, p.cfg.Paths.Cleaned)
		}
		if s.Name == stage.StageANOVA {
			files = append(files, p.cfg.Paths.Report)
		}
		if p.renderer != nil {
			for _, fig := range figuresOf(s.Name) {
				files = append(files, p.renderer.Path(fig))
			}
		}
	}
	removed, err := p.store.CleanOutputs(ctx, files)
	if err != nil {
		return err
	}
	for _, f := range removed {
		p.logger.Debug("removed stale %s", f)
	}
	return nil
}

func figuresOf(name stage.StageName) []string {
	switch name {
	case stage.StageDescribe:
		return []string{chart.FigureGradeHistogram, chart.FigureSexPie, chart.FigureMjobBar}
	case stage.StageANOVA:
		return []string{chart.FigureGroupMeans}
	case stage.StageRegression:
		return []string{chart.FigureResidualFitted, chart.FigureResidualQQ, chart.FigureCorrelationHeatmap}
	}
	return nil
}

func (p *Pipeline) clean(ctx context.Context, st *runState) (stage.StageMetrics, error) {
	cleaner := prep.NewCleaner(p.cfg.Cleaning, p.logger)
	frame, report, err := cleaner.Clean(ctx, p.cfg.Paths.Input)
	if err != nil {
		return stage.StageMetrics{}, err
	}
	st.cleaned = frame
	st.result.Clean = report
	return stage.StageMetrics{ProcessedCount: report.KeptRows}, nil
}

// encode adds the code columns and writes the artifact every later stage reads
func (p *Pipeline) encode(ctx context.Context, st *runState) (stage.StageMetrics, error) {
	if st.cleaned == nil {
		return stage.StageMetrics{}, errors.InternalError("encode runs after clean")
	}
	encoded, err := prep.NewEncoder(p.cfg.Encodings, p.logger).Encode(st.cleaned)
	if err != nil {
		return stage.StageMetrics{}, err
	}
	data, err := tabular.EncodeCSV(encoded)
	if err != nil {
		return stage.StageMetrics{}, errors.Wrap(err, "failed to render artifact")
	}
	if err := p.store.Write(ctx, p.cfg.Paths.Cleaned, data); err != nil {
		return stage.StageMetrics{}, err
	}
	st.result.ArtifactHash = core.NewHash(data)
	p.logger.Info("artifact %s written (%d rows, sha256 %s)", p.cfg.Paths.Cleaned, encoded.Len(), st.result.ArtifactHash.Short())
	return stage.StageMetrics{ProcessedCount: encoded.Len()}, nil
}

// loadArtifact reads the cleaned, encoded artifact once per run
func (p *Pipeline) loadArtifact(ctx context.Context, st *runState) error {
	if st.artifact != nil {
		return nil
	}
	frame, err := tabular.NewDataReader(p.cfg.Paths.Cleaned, tabular.ArtifactDelimiter, p.logger).Read(ctx)
	if err != nil {
		return err
	}
	if frame.Len() == 0 {
		return errors.EmptyResult(0).With("path", p.cfg.Paths.Cleaned)
	}
	if st.result.ArtifactHash.IsEmpty() {
		if h, err := p.store.Hash(ctx, p.cfg.Paths.Cleaned); err == nil {
			st.result.ArtifactHash = h
		}
	}
	st.artifact = frame
	return nil
}

func (p *Pipeline) describe(ctx context.Context, st *runState) (stage.StageMetrics, error) {
	frame := st.artifact
	summaries, err := analysis.Describe(frame, p.cfg.Describe.Columns)
	if err != nil {
		return stage.StageMetrics{}, err
	}
	st.result.Summaries = summaries

	if p.renderer != nil {
		p.figure(p.renderer.GradeHistogram(ctx, frame, p.cfg.Cleaning.GradeColumn))
		p.figure(p.renderer.CategoryPie(ctx, frame, p.cfg.Independence.ColumnA, chart.FigureSexPie))
		p.figure(p.renderer.CategoryBar(ctx, frame, p.cfg.ANOVA.Group, chart.FigureMjobBar))
	}
	return stage.StageMetrics{ProcessedCount: frame.Len()}, nil
}

func (p *Pipeline) chiSquare(ctx context.Context, st *runState) (stage.StageMetrics, error) {
	frame := st.artifact
	ind := p.cfg.Independence
	res, err := analysis.ChiSquareIndependence(frame, ind.ColumnA, ind.ColumnB, p.cfg.Alpha, ind.YatesCorrection)
	if err != nil {
		return stage.StageMetrics{}, err
	}
	st.result.Independence = res
	p.logger.Debug("chi2(%s, %s) = %.4f, p = %.4g", ind.ColumnA, ind.ColumnB, res.Result.Statistic, res.Result.PValue)

	pv := res.Result.PValue
	return stage.StageMetrics{ProcessedCount: frame.Len(), PValue: &pv}, nil
}

func (p *Pipeline) anova(ctx context.Context, st *runState) (stage.StageMetrics, error) {
	frame := st.artifact
	res, err := analysis.OneWayANOVA(frame, p.cfg.ANOVA.Target, p.cfg.ANOVA.Group, p.cfg.Alpha)
	if err != nil {
		return stage.StageMetrics{}, err
	}
	st.result.ANOVA = res

	if len(res.PostHoc) > 0 {
		report := p.printer.PostHocReport(st.result.RunID, res)
		if err := p.store.Write(ctx, p.cfg.Paths.Report, report); err != nil {
			return stage.StageMetrics{}, err
		}
		p.logger.Info("post-hoc report written to %s (%d comparisons)", p.cfg.Paths.Report, len(res.PostHoc))
	}
	if p.renderer != nil {
		p.figure(p.renderer.GroupMeans(ctx, res))
	}

	pv := res.Result.PValue
	return stage.StageMetrics{ProcessedCount: frame.Len(), PValue: &pv}, nil
}

func (p *Pipeline) regression(ctx context.Context, st *runState) (stage.StageMetrics, error) {
	frame := st.artifact
	reg := p.cfg.Regression
	model, err := analysis.FitOLS(frame, reg.Target, reg.Features, p.cfg.Alpha)
	if err != nil {
		return stage.StageMetrics{}, err
	}
	st.result.Regression = model

	vars := append([]string{reg.Target}, reg.Features...)
	corr, err := analysis.Correlations(frame, vars)
	if err != nil {
		return stage.StageMetrics{}, err
	}
	st.result.Correlations = corr
	st.result.TargetCorrelations = analysis.TargetCorrelations(corr, reg.Target)

	if p.renderer != nil {
		p.figure(p.renderer.ResidualsVsFitted(ctx, model))
		p.figure(p.renderer.ResidualQQ(ctx, model))
		p.figure(p.renderer.CorrelationHeatmap(ctx, corr))
	}

	pv := model.F.PValue
	return stage.StageMetrics{ProcessedCount: model.N, PValue: &pv}, nil
}

// figure logs a rendering outcome; rendering never fails a stage
func (p *Pipeline) figure(path string, err error) {
	if err != nil {
		p.logger.Warn("figure skipped: %v", err)
		return
	}
	p.logger.Debug("figure %s", path)
}

// RunSummary returns a one-line account of a finished run
func RunSummary(res *stage.PipelineResult) string {
	return fmt.Sprintf("run %s: %d/%d stages succeeded in %dms",
		res.RunID, res.Overall.Successful, res.Overall.TotalStages, res.Overall.TotalDuration)
}
