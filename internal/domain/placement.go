package domain

import (
	"fmt"

	"gitlab.com/nqueens.net/internal/static/errs"
)

// Placement maps a board row to the column of its queen. Rows at or past the
// current search depth are unspecified and kept at zero.
type Placement []uint32

// NewPlacement returns an empty placement for an n x n board.
func NewPlacement(n int) Placement {
	return make(Placement, n)
}

// Clone returns a copy that does not alias p.
func (p Placement) Clone() Placement {
	out := make(Placement, len(p))
	copy(out, p)
	return out
}

// Params are the problem parameters shared by every role of a run.
type Params struct {
	N uint32 `json:"n"`
	K uint32 `json:"k"`
}

// Validate checks 1 <= N and 0 <= K <= N.
func (p Params) Validate() error {
	if p.N == 0 {
		return fmt.Errorf("%w: board size must be positive", errs.InvalidParams)
	}
	if p.K > p.N {
		return fmt.Errorf("%w: split depth %d exceeds board size %d", errs.InvalidParams, p.K, p.N)
	}
	return nil
}

// Values encodes the parameters for a broadcast.
func (p Params) Values() []uint32 {
	return []uint32{p.N, p.K}
}

// ParamsFromValues decodes broadcast values. No range validation is done here:
// executors trust whatever the coordinator sent.
func ParamsFromValues(v []uint32) (Params, error) {
	if len(v) != 2 {
		return Params{}, fmt.Errorf("%w: expected 2 parameter values, got %d", errs.UnexpectedTag, len(v))
	}
	return Params{N: v[0], K: v[1]}, nil
}
