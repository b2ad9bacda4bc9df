package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the lifecycle state of a run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// Run describes one enumeration across a fixed set of processes
type Run struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	N             int        `db:"n" json:"n"`
	K             int        `db:"k" json:"k"`
	Procs         int        `db:"procs" json:"procs"`
	Status        RunStatus  `db:"status" json:"status"`
	SolutionCount int        `db:"solution_count" json:"solution_count"`
	StartedAt     time.Time  `db:"started_at" json:"started_at"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// NewRun creates a running run record
func NewRun(params Params, procs int) *Run {
	return &Run{
		ID:        uuid.New(),
		N:         int(params.N),
		K:         int(params.K),
		Procs:     procs,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}
}

// Complete marks the run finished with the given solution set
func (r *Run) Complete(sols Solutions) {
	now := time.Now()
	r.Status = RunStatusCompleted
	r.SolutionCount = sols.Count()
	r.CompletedAt = &now
}

// Fail marks the run as failed
func (r *Run) Fail() {
	now := time.Now()
	r.Status = RunStatusFailed
	r.CompletedAt = &now
}
