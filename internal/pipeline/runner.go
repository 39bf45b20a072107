package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/retailpipe/pkg/logger"
	"github.com/angelmondragon/retailpipe/pkg/metrics"
)

// RunnerParams configure the stage runner.
type RunnerParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Metrics  *metrics.StageMetrics
	RunID    string
}

// Runner executes registered stages one after another.
type Runner struct {
	logg     *logger.Logger
	registry *Registry
	metrics  *metrics.StageMetrics
	runID    string
}

// NewRunner builds a stage runner. A run id is generated when none is given.
func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	runID := params.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Runner{
		logg:     params.Logger,
		registry: registry,
		metrics:  params.Metrics,
		runID:    runID,
	}, nil
}

// RunID identifies this run in logs.
func (r *Runner) RunID() string { return r.runID }

// Run executes every stage in order and stops at the first failure, since
// later stages consume the output of earlier ones.
func (r *Runner) Run(ctx context.Context) error {
	ctx = r.logg.WithRunID(ctx, r.runID)
	start := time.Now()
	r.logg.Info(ctx, "pipeline run starting")
	for _, stage := range r.registry.Stages() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.runStage(ctx, stage); err != nil {
			failCtx := r.logg.WithField(ctx, "duration_ms", time.Since(start).Milliseconds())
			r.logg.Error(failCtx, "pipeline run aborted", err)
			return fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
	}
	doneCtx := r.logg.WithField(ctx, "duration_ms", time.Since(start).Milliseconds())
	r.logg.Info(doneCtx, "pipeline run complete")
	return nil
}

func (r *Runner) runStage(ctx context.Context, stage Stage) error {
	stageCtx := r.logg.WithStage(ctx, stage.Name())
	r.logg.Info(stageCtx, "stage start")
	start := time.Now()
	err := stage.Run(stageCtx)
	duration := time.Since(start)
	r.metrics.ObserveDuration(stage.Name(), duration)
	stageCtx = r.logg.WithField(stageCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		r.logg.Error(stageCtx, "stage failed", err)
		r.metrics.IncFailure(stage.Name())
		return err
	}
	r.logg.Info(stageCtx, "stage completed")
	r.metrics.IncSuccess(stage.Name())
	return nil
}
