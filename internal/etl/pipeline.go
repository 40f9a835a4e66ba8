package etl

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stage identifies where in the run the pipeline currently is. Transitions
// are strictly sequential; StageFailed is absorbing and reachable from any
// non-terminal stage.
type Stage string

const (
	StageIdle         Stage = "Idle"
	StageExtracting   Stage = "Extracting"
	StageTransforming Stage = "Transforming"
	StageLoading      Stage = "Loading"
	StageVerifying    Stage = "Verifying"
	StageSucceeded    Stage = "Succeeded"
	StageFailed       Stage = "Failed"
)

// PipelineRun is the mutable execution context for one run. The pipeline
// constructs and finalizes it exclusively; stages only record metrics on it
// as they complete.
type PipelineRun struct {
	ID         string
	StartedAt  time.Time
	Stage      Stage
	Attempts   int // extraction attempts, success or failure
	Dropped    int // rows dropped during cleaning
	Advisories int // advisory value warnings
	ErrorCount int // failed attempts plus dropped rows

	Extracted   int
	Transformed int
	Loaded      int
	Duration    time.Duration
}

// Retries is the number of failed extraction attempts before the last one.
func (r *PipelineRun) Retries() int {
	if r.Attempts <= 1 {
		return 0
	}
	return r.Attempts - 1
}

// Pipeline sequences extract, transform, load and verify over a single
// batch. It owns the PipelineRun, is the sole catcher of fatal error kinds,
// and never retries one itself (retry lives inside extraction only).
type Pipeline struct {
	extractor   *RetryingExtractor
	transformer *Transformer
	loader      *Loader
	verifier    *Verifier
	log         *zap.SugaredLogger
}

func New(extractor *RetryingExtractor, transformer *Transformer, loader *Loader, verifier *Verifier, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		extractor:   extractor,
		transformer: transformer,
		loader:      loader,
		verifier:    verifier,
		log:         log,
	}
}

// Run executes one batch end to end and always returns a finalized report.
// The error is non-nil exactly when the report status is "failure"; the
// failing stage and error kind are captured in the report rather than
// re-raised with extra context.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	run := &PipelineRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Stage:     StageIdle,
	}
	p.log.Infow("pipeline run starting", "run_id", run.ID)

	verification, err := p.execute(ctx, run)
	run.Duration = time.Since(run.StartedAt)

	if err != nil {
		failedAt := run.Stage
		run.Stage = StageFailed
		p.log.Errorw("pipeline run failed",
			"run_id", run.ID,
			"stage", string(failedAt),
			"error_kind", ErrorKind(err),
			"duration", run.Duration,
			"error", err,
		)
		return newFailureReport(run, failedAt, err), err
	}

	run.Stage = StageSucceeded
	p.log.Infow("pipeline run succeeded",
		"run_id", run.ID,
		"duration", run.Duration,
		"records_extracted", run.Extracted,
		"records_transformed", run.Transformed,
		"records_loaded", run.Loaded,
		"errors", run.ErrorCount,
	)
	return newSuccessReport(run, verification), nil
}

// execute walks the stage sequence, leaving run.Stage at the stage that was
// active when an error surfaced.
func (p *Pipeline) execute(ctx context.Context, run *PipelineRun) (*VerificationReport, error) {
	run.Stage = StageExtracting
	raw, err := p.extractor.Extract(ctx, run)
	if err != nil {
		return nil, err
	}
	run.Extracted = len(raw)

	run.Stage = StageTransforming
	clean, err := p.transformer.Transform(raw, run)
	if err != nil {
		return nil, err
	}
	run.Transformed = len(clean)

	run.Stage = StageLoading
	loaded, err := p.loader.Load(ctx, clean)
	if err != nil {
		return nil, err
	}
	run.Loaded = loaded

	run.Stage = StageVerifying
	return p.verifier.Verify(ctx, loaded)
}
