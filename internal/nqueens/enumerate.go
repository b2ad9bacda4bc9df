package nqueens

import (
	"iter"

	"gitlab.com/nqueens.net/internal/domain"
)

// Enumerate calls onResult once for every valid assignment of rows
// start..target-1 that is consistent with rows 0..start-1 of placement.
// When start == target the placement itself is reported once.
//
// The placement passed to onResult is a scratch buffer owned by the search;
// it is only valid for the duration of the call. placement is not modified.
func Enumerate(placement domain.Placement, start, target int, onResult func(domain.Placement)) {
	if !inRange(placement, start, target) {
		return
	}
	walk(placement.Clone(), start, target, func(p domain.Placement) bool {
		onResult(p)
		return true
	})
}

// Placements is the iterator form of Enumerate. Each yielded placement is a
// private copy, and breaking out of the loop stops the search.
func Placements(placement domain.Placement, start, target int) iter.Seq[domain.Placement] {
	return func(yield func(domain.Placement) bool) {
		if !inRange(placement, start, target) {
			return
		}
		walk(placement.Clone(), start, target, func(p domain.Placement) bool {
			return yield(p.Clone())
		})
	}
}

// Solve enumerates every solution of the n-queens problem in one process.
func Solve(n int) domain.Solutions {
	var buf domain.ResultBuffer
	Enumerate(domain.NewPlacement(n), 0, n, buf.Append)
	return domain.Solutions{N: n, Values: buf.Flush()}
}

// Count returns the number of n-queens solutions.
func Count(n int) int {
	count := 0
	Enumerate(domain.NewPlacement(n), 0, n, func(domain.Placement) { count++ })
	return count
}

func inRange(p domain.Placement, start, target int) bool {
	return start >= 0 && start <= target && target <= len(p)
}

// walk returns false once visit asked to stop.
func walk(p domain.Placement, level, target int, visit func(domain.Placement) bool) bool {
	if level == target {
		return visit(p)
	}
	defer func() { p[level] = 0 }()

	for col := uint32(0); col < uint32(len(p)); col++ {
		if !Safe(p, level, col) {
			continue
		}
		p[level] = col
		if !walk(p, level+1, target, visit) {
			return false
		}
	}
	return true
}

// Safe reports whether a queen on (row, col) is not attacked by the queens on
// rows 0..row-1.
func Safe(p domain.Placement, row int, col uint32) bool {
	for r := 0; r < row; r++ {
		c := p[r]
		if c == col {
			return false
		}
		dist := uint32(row - r)
		if c+dist == col || col+dist == c {
			return false
		}
	}
	return true
}
