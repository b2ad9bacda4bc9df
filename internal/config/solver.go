package config

import (
	"fmt"

	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/static/errs"
)

type SolverConfig struct {
	N     int
	K     int
	Procs int
}

func NewSolverConfig() *SolverConfig {
	return &SolverConfig{
		N:     getIntEnv("NQUEENS_N", 8),
		K:     getIntEnv("NQUEENS_K", 2),
		Procs: getIntEnv("NQUEENS_PROCS", 4),
	}
}

// Params converts the configured board size and split depth. Negative values
// are rejected rather than wrapped.
func (c *SolverConfig) Params() (domain.Params, error) {
	if c.N < 0 || c.K < 0 {
		return domain.Params{}, fmt.Errorf("%w: n and k must not be negative (n=%d, k=%d)", errs.InvalidParams, c.N, c.K)
	}
	return domain.Params{N: uint32(c.N), K: uint32(c.K)}, nil
}
