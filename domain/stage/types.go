package stage

import (
	"encoding/json"
	"fmt"

	"gograde/domain/core"
	"gograde/domain/dataset"
	"gograde/domain/stats"
)

// StageName represents a named stage in the pipeline
type StageName string

// Predefined stage names, in execution order
const (
	StageClean      StageName = "clean"
	StageEncode     StageName = "encode"
	StageDescribe   StageName = "describe"
	StageChiSquare  StageName = "chisquare"
	StageANOVA      StageName = "anova"
	StageRegression StageName = "regression"
)

// StageKind categorizes stages by function
type StageKind string

const (
	StageKindPrep  StageKind = "prep"  // produces the cleaned artifact
	StageKindStats StageKind = "stats" // reads the artifact, computes results
)

// StageSpec defines a single stage in the pipeline
type StageSpec struct {
	Name StageName `json:"name"`
	Kind StageKind `json:"kind"`
}

// StagePlan represents an ordered list of stages
type StagePlan struct {
	Stages []StageSpec `json:"stages"`
}

// KindOf returns the kind of a predefined stage
func KindOf(name StageName) (StageKind, bool) {
	for _, s := range DefaultPlan().Stages {
		if s.Name == name {
			return s.Kind, true
		}
	}
	return "", false
}

// DefaultPlan is clean, encode, describe, chisquare, anova, regression
func DefaultPlan() *StagePlan {
	return &StagePlan{Stages: []StageSpec{
		{Name: StageClean, Kind: StageKindPrep},
		{Name: StageEncode, Kind: StageKindPrep},
		{Name: StageDescribe, Kind: StageKindStats},
		{Name: StageChiSquare, Kind: StageKindStats},
		{Name: StageANOVA, Kind: StageKindStats},
		{Name: StageRegression, Kind: StageKindStats},
	}}
}

// Only returns a plan restricted to the named stages, keeping plan order
func (p *StagePlan) Only(names ...StageName) *StagePlan {
	want := make(map[StageName]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := &StagePlan{}
	for _, s := range p.Stages {
		if want[s.Name] {
			out.Stages = append(out.Stages, s)
		}
	}
	return out
}

// Hash computes a deterministic hash of the stage plan. Order matters.
func (p *StagePlan) Hash() core.Hash {
	data, _ := json.Marshal(p.Stages)
	return core.NewHash(data)
}

// Validate checks if the stage plan is valid
func (p *StagePlan) Validate() error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("stage plan must contain at least one stage")
	}

	seenNames := make(map[StageName]bool)
	for _, stage := range p.Stages {
		if stage.Name == "" {
			return fmt.Errorf("stage name cannot be empty")
		}
		if seenNames[stage.Name] {
			return fmt.Errorf("duplicate stage name: %s", stage.Name)
		}
		seenNames[stage.Name] = true
		if kind, ok := KindOf(stage.Name); ok && kind != stage.Kind {
			return fmt.Errorf("stage %s must be of kind %q, got %q", stage.Name, kind, stage.Kind)
		}
	}
	return nil
}

// StageMetrics contains canonical metrics for stage results
type StageMetrics struct {
	ProcessedCount int   `json:"processed_count"` // rows the stage consumed
	DurationMs     int64 `json:"duration_ms"`

	PValue *float64 `json:"p_value,omitempty"`
}

// StageResult represents the output of a stage execution
type StageResult struct {
	StageName StageName    `json:"stage_name"`
	Success   bool         `json:"success"`
	Metrics   StageMetrics `json:"metrics"`
	Error     string       `json:"error,omitempty"`
}

// StageError wraps the first failure of a run with the stage that raised it
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// PipelineResult contains the results of executing a stage plan
type PipelineResult struct {
	RunID   core.RunID      `json:"run_id"`
	Plan    *StagePlan      `json:"plan"`
	Results []StageResult   `json:"results"`
	Overall PipelineSummary `json:"overall"`

	// ArtifactHash fingerprints the encoded artifact the stats stages read
	ArtifactHash core.Hash `json:"artifact_hash,omitempty"`

	Clean              *dataset.CleanReport        `json:"clean,omitempty"`
	Summaries          []stats.Summary             `json:"summaries,omitempty"`
	Independence       *stats.IndependenceResult   `json:"independence,omitempty"`
	ANOVA              *stats.ANOVAResult          `json:"anova,omitempty"`
	Regression         *stats.RegressionModel      `json:"regression,omitempty"`
	Correlations       *stats.CorrelationMatrix    `json:"correlations,omitempty"`
	TargetCorrelations []stats.VariableCorrelation `json:"target_correlations,omitempty"`
}

// PipelineSummary provides high-level pipeline statistics
type PipelineSummary struct {
	TotalStages   int   `json:"total_stages"`
	Successful    int   `json:"successful"`
	Failed        int   `json:"failed"`
	TotalDuration int64 `json:"total_duration_ms"`
}

// NewPipelineResult creates a new pipeline result
func NewPipelineResult(runID core.RunID, plan *StagePlan) *PipelineResult {
	return &PipelineResult{
		RunID:   runID,
		Plan:    plan,
		Results: make([]StageResult, 0, len(plan.Stages)),
	}
}

// AddResult adds a stage result and updates summary
func (r *PipelineResult) AddResult(result StageResult) {
	r.Results = append(r.Results, result)
	r.Overall.TotalStages++

	if result.Success {
		r.Overall.Successful++
	} else {
		r.Overall.Failed++
	}
	r.Overall.TotalDuration += result.Metrics.DurationMs
}

// Success returns true if all stages succeeded
func (r *PipelineResult) Success() bool {
	return r.Overall.Failed == 0
}
