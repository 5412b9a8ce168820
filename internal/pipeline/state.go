package pipeline

import (
	"sync"
	"time"

	"darahcli/internal/dataprocessing"
	"darahcli/internal/donation"
	"darahcli/pkg/contracts/domain"
	"darahcli/pkg/contracts/events"
)

// Run lifecycle statuses, mirrored into snapshots.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// State carries everything one analysis run accumulates as it moves
// through the pipeline.
//
// The data fields are not locked: stages run sequentially, each field is
// written by exactly one stage and read only by later ones. Run-level
// status goes through the methods so snapshots can be taken while a
// stage is executing.
type State struct {
	runID string

	mu          sync.RWMutex
	status      string
	message     string
	err         error
	startedAt   time.Time
	completedAt *time.Time

	stages []*StageState

	// Stage products
	Facility  donation.DatasetInput
	Region    donation.DatasetInput
	Result    *domain.AnalysisResult
	Summaries []dataprocessing.EntitySummary
}

// NewState prepares the run state with one pending StageState per stage,
// in execution order.
func NewState(runID string, stages []Stage) *State {
	state := &State{
		runID:     runID,
		status:    RunStatusPending,
		startedAt: time.Now().UTC(),
	}
	for _, stage := range stages {
		state.stages = append(state.stages, NewStageState(stage.ID(), stage.Name()))
	}
	return state
}

// RunID returns the run identifier.
func (s *State) RunID() string {
	return s.runID
}

// Status returns the run-level status.
func (s *State) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Err returns the run failure, or nil.
func (s *State) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Start marks the run as running.
func (s *State) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = RunStatusRunning
	s.startedAt = time.Now().UTC()
}

// Complete marks the run finished with a closing message.
func (s *State) Complete(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	s.completedAt = &now
	s.status = RunStatusCompleted
	s.message = message
}

// Fail records the run failure.
func (s *State) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	s.completedAt = &now
	s.status = RunStatusFailed
	s.err = err
}

// Stage returns the state for the given stage ID, or nil.
func (s *State) Stage(id string) *StageState {
	for _, stage := range s.stages {
		if stage.ID() == id {
			return stage
		}
	}
	return nil
}

// Stages returns the stage states in execution order.
func (s *State) Stages() []*StageState {
	return s.stages
}

// Snapshot assembles the full wire representation of the run. Overall
// progress is the mean of the stage progresses; the current stage is
// the active one, if any.
func (s *State) Snapshot() *events.RunSnapshot {
	s.mu.RLock()
	snap := &events.RunSnapshot{
		RunID:     s.runID,
		Status:    s.status,
		Message:   s.message,
		StartedAt: s.startedAt,
		UpdatedAt: time.Now().UTC(),
	}
	if s.completedAt != nil {
		done := *s.completedAt
		snap.CompletedAt = &done
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	s.mu.RUnlock()

	total := 0
	for _, stage := range s.stages {
		stageSnap := stage.Snapshot()
		snap.Stages = append(snap.Stages, stageSnap)
		total += stageSnap.Progress
		if stageSnap.Status == string(StageStatusActive) {
			snap.CurrentStage = stageSnap.ID
		}
	}
	if len(s.stages) > 0 {
		snap.Progress = total / len(s.stages)
	}
	return snap
}
