// Package pipeline sequences the stages of one analysis run: load the
// two donation datasets, analyze them, export the reports. The runner
// publishes a full run snapshot at every stage transition and records
// stage-level metrics.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "darahcli/internal/errors"
	"darahcli/internal/infrastructure"
	"darahcli/pkg/contracts/events"
)

// Broadcaster receives run snapshots as the pipeline advances. The
// websocket hub satisfies this; a nil broadcaster disables publishing.
type Broadcaster interface {
	BroadcastSnapshot(snapshot *events.RunSnapshot)
}

// Runner executes stages in order, honoring context cancellation
// between stages.
type Runner struct {
	stages      []Stage
	broadcaster Broadcaster
	metrics     *infrastructure.BusinessMetrics
	logger      *slog.Logger
}

// NewRunner wires a runner. Broadcaster and metrics may be nil; the
// CLI runs without either.
func NewRunner(stages []Stage, broadcaster Broadcaster, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Runner{
		stages:      stages,
		broadcaster: broadcaster,
		metrics:     metrics,
		logger:      logger.With(slog.String("component", "pipeline.runner")),
	}
}

// Prepare allocates the state for a new run with a fresh run ID. The
// server starts runs asynchronously and needs the ID before execution
// begins; the CLI uses Run, which prepares and executes in one call.
func (r *Runner) Prepare() *State {
	return NewState(uuid.New().String(), r.stages)
}

// Run executes every stage in order and returns the final state. The
// returned error is the first stage failure, or the context error when
// the run is cancelled between stages. The state is returned in both
// cases so callers can inspect how far the run got.
func (r *Runner) Run(ctx context.Context) (*State, error) {
	state := r.Prepare()
	return state, r.Execute(ctx, state)
}

// Execute runs a prepared state through every stage in order.
func (r *Runner) Execute(ctx context.Context, state *State) error {
	runID := state.RunID()
	ctx = infrastructure.WithTraceID(ctx, runID)

	r.logger.InfoContext(ctx, "analysis run starting",
		slog.String("run_id", runID),
		slog.Int("stage_count", len(r.stages)))

	infrastructure.RecordActiveRunChange(ctx, r.metrics, 1)
	defer infrastructure.RecordActiveRunChange(ctx, r.metrics, -1)

	runStart := time.Now()
	state.Start()
	r.publish(state)

	for i, stage := range r.stages {
		select {
		case <-ctx.Done():
			err := ctx.Err()
			r.logger.WarnContext(ctx, "analysis run cancelled",
				slog.String("run_id", runID),
				slog.String("next_stage", stage.ID()))
			state.Fail(err)
			r.publish(state)
			infrastructure.RecordRunMetrics(ctx, r.metrics, runID, time.Since(runStart), false, err)
			return err
		default:
		}

		if err := r.runStage(ctx, state, stage, i); err != nil {
			state.Fail(err)
			r.publish(state)
			infrastructure.RecordRunMetrics(ctx, r.metrics, runID, time.Since(runStart), false, err)
			return err
		}
	}

	state.Complete("analysis complete")
	r.publish(state)
	infrastructure.RecordRunMetrics(ctx, r.metrics, runID, time.Since(runStart), true, nil)

	r.logger.InfoContext(ctx, "analysis run finished",
		slog.String("run_id", runID),
		slog.Duration("duration", time.Since(runStart)))

	return nil
}

func (r *Runner) runStage(ctx context.Context, state *State, stage Stage, index int) error {
	stageState := state.Stage(stage.ID())

	r.logger.InfoContext(ctx, "stage starting",
		slog.String("run_id", state.RunID()),
		slog.String("stage", stage.ID()),
		slog.Int("stage_number", index+1),
		slog.Int("total_stages", len(r.stages)))

	stageState.Start()
	r.publish(state)

	start := time.Now()
	err := stage.Run(ctx, state)
	duration := time.Since(start)

	infrastructure.RecordStageMetrics(ctx, r.metrics, state.RunID(), stage.ID(), duration, err == nil)

	if err != nil {
		r.logger.ErrorContext(ctx, "stage failed",
			slog.String("run_id", state.RunID()),
			slog.String("stage", stage.ID()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))

		stageState.Fail(err)
		r.publish(state)
		return apperrors.NewAnalysisError(fmt.Sprintf("stage %s failed", stage.ID()), err)
	}

	stageState.Complete()
	r.publish(state)

	r.logger.InfoContext(ctx, "stage completed",
		slog.String("run_id", state.RunID()),
		slog.String("stage", stage.ID()),
		slog.Duration("duration", duration))

	return nil
}

func (r *Runner) publish(state *State) {
	if r.broadcaster == nil {
		return
	}
	r.broadcaster.BroadcastSnapshot(state.Snapshot())
}
