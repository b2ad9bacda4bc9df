package runrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/core/ports/secondary"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/static/errs"
)

var _ secondary.RunRepository = (*RunRepository)(nil)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id             TEXT PRIMARY KEY,
		n              INTEGER NOT NULL,
		k              INTEGER NOT NULL,
		procs          INTEGER NOT NULL,
		status         TEXT NOT NULL,
		solution_count INTEGER NOT NULL DEFAULT 0,
		started_at     TIMESTAMP NOT NULL,
		completed_at   TIMESTAMP NULL
	)`,
	`CREATE TABLE IF NOT EXISTS solutions (
		run_id    TEXT NOT NULL REFERENCES runs(id),
		idx       INTEGER NOT NULL,
		placement TEXT NOT NULL,
		PRIMARY KEY (run_id, idx)
	)`,
}

// RunRepository implements the RunRepository interface with sqlx
type RunRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB, logger primary.Logger) *RunRepository {
	return &RunRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the runs and solutions tables if they are missing
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			r.logger.Error("Failed to apply schema", "error", err)
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// SaveRun inserts a run or updates its mutable columns
func (r *RunRepository) SaveRun(ctx context.Context, run *domain.Run) error {
	query := `
		INSERT INTO runs (
			id, n, k, procs, status, solution_count, started_at, completed_at
		) VALUES (:id, :n, :k, :procs, :status, :solution_count, :started_at, :completed_at)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			solution_count = excluded.solution_count,
			completed_at = excluded.completed_at
	`

	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		r.logger.Error("Failed to save run", "runId", run.ID, "error", err)
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID, or nil if it does not exist
func (r *RunRepository) GetRun(ctx context.Context, runID uuid.UUID) (*domain.Run, error) {
	query := r.db.Rebind(`
		SELECT id, n, k, procs, status, solution_count, started_at, completed_at
		FROM runs
		WHERE id = ?
	`)

	var run domain.Run
	if err := r.db.GetContext(ctx, &run, query, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get run", "runId", runID, "error", err)
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// SaveSolutions replaces the stored solution set of a run
func (r *RunRepository) SaveSolutions(ctx context.Context, runID uuid.UUID, sols domain.Solutions) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be ignored if the transaction is committed

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM solutions WHERE run_id = ?`), runID); err != nil {
		return fmt.Errorf("failed to clear solutions: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO solutions (run_id, idx, placement) VALUES (?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare solution insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range sols.Split() {
		if _, err := stmt.ExecContext(ctx, runID, i, encodePlacement(p)); err != nil {
			r.logger.Error("Failed to save solution", "runId", runID, "index", i, "error", err)
			return fmt.Errorf("failed to save solution %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit solutions: %w", err)
	}
	return nil
}

// GetSolutions retrieves the solution set of a run in stored order
func (r *RunRepository) GetSolutions(ctx context.Context, runID uuid.UUID) (domain.Solutions, error) {
	run, err := r.GetRun(ctx, runID)
	if err != nil {
		return domain.Solutions{}, err
	}
	if run == nil {
		return domain.Solutions{}, fmt.Errorf("%w: run %s", errs.NotFound, runID)
	}

	var rows []string
	query := r.db.Rebind(`SELECT placement FROM solutions WHERE run_id = ? ORDER BY idx`)
	if err := r.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return domain.Solutions{}, fmt.Errorf("failed to get solutions: %w", err)
	}

	sols := domain.Solutions{N: run.N, Values: make([]uint32, 0, len(rows)*run.N)}
	for _, row := range rows {
		p, err := decodePlacement(row)
		if err != nil {
			return domain.Solutions{}, err
		}
		if len(p) != run.N {
			return domain.Solutions{}, fmt.Errorf("stored placement %q does not fit board size %d", row, run.N)
		}
		sols.Values = append(sols.Values, p...)
	}
	return sols, nil
}

func encodePlacement(p domain.Placement) string {
	parts := make([]string, len(p))
	for i, col := range p {
		parts[i] = strconv.FormatUint(uint64(col), 10)
	}
	return strings.Join(parts, ",")
}

func decodePlacement(s string) (domain.Placement, error) {
	if s == "" {
		return domain.Placement{}, nil
	}
	parts := strings.Split(s, ",")
	p := make(domain.Placement, len(parts))
	for i, part := range parts {
		col, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid stored placement %q: %w", s, err)
		}
		p[i] = uint32(col)
	}
	return p, nil
}
