package pipeline

import (
	"context"
	"sync"
	"time"

	"darahcli/pkg/contracts/events"
)

// Stage is one step of an analysis run. Stages communicate through the
// shared State: each writes the fields later stages read.
type Stage interface {
	// ID returns the stable identifier used in snapshots and logs
	ID() string

	// Name returns the human-readable stage name
	Name() string

	// Run executes the stage against the run state
	Run(ctx context.Context, state *State) error
}

// StageStatus is the lifecycle position of a stage within a run
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusActive    StageStatus = "active"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
)

// StageState is the runtime record of one stage. All mutation goes
// through its methods so snapshots taken from other goroutines are
// consistent.
type StageState struct {
	mu sync.RWMutex

	id   string
	name string

	status    StageStatus
	progress  int
	message   string
	err       error
	startTime *time.Time
	endTime   *time.Time
}

// NewStageState returns a pending state for the given stage.
func NewStageState(id, name string) *StageState {
	return &StageState{
		id:     id,
		name:   name,
		status: StageStatusPending,
	}
}

// ID returns the stage identifier.
func (s *StageState) ID() string {
	return s.id
}

// Name returns the stage display name.
func (s *StageState) Name() string {
	return s.name
}

// Status returns the current lifecycle status.
func (s *StageState) Status() StageStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Err returns the failure recorded by Fail, or nil.
func (s *StageState) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Start marks the stage active and stamps the start time.
func (s *StageState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.startTime = &now
	s.status = StageStatusActive
	s.progress = 0
}

// Complete marks the stage finished and stamps the end time.
func (s *StageState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.endTime = &now
	s.status = StageStatusCompleted
	s.progress = 100
}

// Fail records the error and stamps the end time.
func (s *StageState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.endTime = &now
	s.status = StageStatusFailed
	s.err = err
}

// UpdateProgress records intermediate progress for the next snapshot.
func (s *StageState) UpdateProgress(progress int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	s.progress = progress
	s.message = message
}

// Duration returns how long the stage has run, or ran.
func (s *StageState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.startTime == nil {
		return 0
	}
	if s.endTime != nil {
		return s.endTime.Sub(*s.startTime)
	}
	return time.Since(*s.startTime)
}

// Snapshot returns the wire representation of the stage.
func (s *StageState) Snapshot() events.StageSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := events.StageSnapshot{
		ID:       s.id,
		Name:     s.name,
		Status:   string(s.status),
		Progress: s.progress,
		Message:  s.message,
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	return snap
}
