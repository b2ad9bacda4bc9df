package coordinator

import (
	"context"

	"gitlab.com/nqueens.net/internal/domain"
)

// ICoordinatorService defines the coordinator role of a run
type ICoordinatorService interface {
	// Run broadcasts params, hands out every depth-k placement on demand,
	// terminates every executor and returns all collected solutions
	Run(ctx context.Context, params domain.Params) (domain.Solutions, error)

	// Stats returns a snapshot of the run's progress. Safe to call concurrently with Run.
	Stats() Stats
}

// Phase is the coordinator's position in the protocol
type Phase string

const (
	PhaseIdle        Phase = "IDLE"
	PhaseDispatching Phase = "DISPATCHING"
	PhaseDraining    Phase = "DRAINING"
	PhaseDone        Phase = "DONE"
)

// Stats is a point-in-time view of a coordinator
type Stats struct {
	Phase      Phase `json:"phase"`
	Dispatched int64 `json:"dispatched"`
	Requests   int64 `json:"requests"`
	Live       int64 `json:"live_executors"`
	Terminated int64 `json:"terminated_executors"`
	Solutions  int64 `json:"solutions"`
}
