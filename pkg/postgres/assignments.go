package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jakechorley/parish-roster/pkg/db"
)

// querier is satisfied by both the pool and a transaction
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// GetAssignments retrieves every assignment of a period, ordered by seat
func (d *DB) GetAssignments(ctx context.Context, year, month int) ([]db.Assignment, error) {
	return getAssignments(ctx, d.pool, year, month)
}

// WithPeriodLock runs fn in a transaction holding a transaction-scoped advisory lock
// on the period, so concurrent commits of the same period run one after the other.
func (d *DB) WithPeriodLock(ctx context.Context, year, month int, fn func(tx db.AssignmentTx) error) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, db.PeriodLockKey(year, month)); err != nil {
		return fmt.Errorf("failed to lock period %04d-%02d: %w", year, month, err)
	}

	if err := fn(&assignmentTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// assignmentTx implements db.AssignmentTx on an open transaction
type assignmentTx struct {
	tx pgx.Tx
}

func (t *assignmentTx) GetAssignments(ctx context.Context, year, month int) ([]db.Assignment, error) {
	return getAssignments(ctx, t.tx, year, month)
}

func (t *assignmentTx) InsertAssignments(ctx context.Context, assignments []db.Assignment) error {
	for _, a := range assignments {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO assignment (id, year, month, slot_id, service_date, service_time, position,
				volunteer_id, status, provenance, run_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, a.ID, a.Year, a.Month, a.SlotID, a.Date, a.Time, a.Position,
			nullable(a.VolunteerID), a.Status, a.Provenance, nullable(a.RunID))
		if err != nil {
			return fmt.Errorf("failed to insert assignment %s: %w", a.ID, err)
		}
	}
	return nil
}

func (t *assignmentTx) UpdateAssignments(ctx context.Context, assignments []db.Assignment) error {
	for _, a := range assignments {
		tag, err := t.tx.Exec(ctx, `
			UPDATE assignment
			SET slot_id = $2, volunteer_id = $3, status = $4, provenance = $5, run_id = $6, updated_at = NOW()
			WHERE id = $1
		`, a.ID, a.SlotID, nullable(a.VolunteerID), a.Status, a.Provenance, nullable(a.RunID))
		if err != nil {
			return fmt.Errorf("failed to update assignment %s: %w", a.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("failed to update assignment %s: %w", a.ID, db.ErrNotFound)
		}
	}
	return nil
}

func (t *assignmentTx) SupersedeAssignments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := t.tx.Exec(ctx, `
		UPDATE assignment SET status = 'superseded', updated_at = NOW()
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to supersede assignments: %w", err)
	}
	return nil
}

func (t *assignmentTx) UpdateLastService(ctx context.Context, lastService map[string]time.Time) error {
	for volunteerID, at := range lastService {
		_, err := t.tx.Exec(ctx, `
			UPDATE volunteer SET last_service = $2
			WHERE id = $1 AND (last_service IS NULL OR last_service < $2)
		`, volunteerID, at)
		if err != nil {
			return fmt.Errorf("failed to update last service of %s: %w", volunteerID, err)
		}
	}
	return nil
}

// GetLastServedBefore returns the latest scheduled or pinned seat of each volunteer dated
// before the given day
func (d *DB) GetLastServedBefore(ctx context.Context, before time.Time) ([]db.Assignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT DISTINCT ON (volunteer_id) volunteer_id, service_date, service_time
		FROM assignment
		WHERE volunteer_id IS NOT NULL
			AND status IN ('scheduled', 'pinned')
			AND service_date < $1::date
		ORDER BY volunteer_id, service_date DESC, service_time DESC
	`, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query service history: %w", err)
	}
	defer rows.Close()

	var served []db.Assignment
	for rows.Next() {
		var a db.Assignment
		if err := rows.Scan(&a.VolunteerID, &a.Date, &a.Time); err != nil {
			return nil, fmt.Errorf("failed to scan service history: %w", err)
		}
		served = append(served, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service history: %w", err)
	}
	return served, nil
}

func getAssignments(ctx context.Context, q querier, year, month int) ([]db.Assignment, error) {
	rows, err := q.Query(ctx, `
		SELECT id, year, month, slot_id, service_date, service_time, position,
			volunteer_id, status, provenance, run_id
		FROM assignment
		WHERE year = $1 AND month = $2
		ORDER BY service_date, service_time, position, id
	`, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []db.Assignment
	for rows.Next() {
		var a db.Assignment
		var volunteerID, runID *string
		if err := rows.Scan(&a.ID, &a.Year, &a.Month, &a.SlotID, &a.Date, &a.Time, &a.Position,
			&volunteerID, &a.Status, &a.Provenance, &runID); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		if volunteerID != nil {
			a.VolunteerID = *volunteerID
		}
		if runID != nil {
			a.RunID = *runID
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}
