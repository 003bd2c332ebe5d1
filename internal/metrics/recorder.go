package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// BuildOutcomeLabel is the final status of a resolve or export run.
type BuildOutcomeLabel string

const (
	OutcomeSuccess  BuildOutcomeLabel = "success"
	OutcomeWarning  BuildOutcomeLabel = "warning"
	OutcomeFailed   BuildOutcomeLabel = "failed"
	OutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Stages observed by the recorder.
const (
	StageScan    = "scan"
	StageContent = "content"
	StageResolve = "resolve"
	StageRender  = "render"
	StageExport  = "export"
)

// Recorder defines observability hooks for resolution and export.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	SetRoutes(origin string, n int)
	AddPages(result string, n int) // result: written|skipped
	AddBrokenLinks(n int)
	IncBuildOutcome(outcome BuildOutcomeLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) SetRoutes(string, int)                      {}
func (NoopRecorder) AddPages(string, int)                       {}
func (NoopRecorder) AddBrokenLinks(int)                         {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)          {}

// Stage times fn, recording its duration and result under stage.
func Stage(r Recorder, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.ObserveStageDuration(stage, time.Since(start))
	if err != nil {
		r.IncStageResult(stage, ResultFailed)
		return err
	}
	r.IncStageResult(stage, ResultSuccess)
	return nil
}
