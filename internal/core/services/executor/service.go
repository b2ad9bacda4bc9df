package executor

import "context"

// IExecutorService defines the executor role of a run
type IExecutorService interface {
	// Run takes part in the parameter broadcast, then requests and completes
	// work units until the coordinator sends termination
	Run(ctx context.Context) error

	// Completed returns the number of work units finished so far
	Completed() int64
}
