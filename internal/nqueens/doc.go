// Package nqueens implements the backtracking placement search shared by the
// coordinator and the executors.
//
// A search runs over the rows start..target-1 of a placement whose rows
// 0..start-1 are already fixed. Every valid extension is reported exactly once,
// synchronously and in column order. The coordinator uses a shallow search
// (0..k) to cut the tree into work units; executors finish each unit (k..n).
package nqueens
