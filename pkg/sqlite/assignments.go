package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jakechorley/parish-roster/pkg/db"
)

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// GetAssignments retrieves every assignment of a period, ordered by seat
func (d *DB) GetAssignments(ctx context.Context, year, month int) ([]db.Assignment, error) {
	return getAssignments(ctx, d.conn, year, month)
}

// WithPeriodLock runs fn in an immediate transaction. SQLite allows a single writer,
// so holding the write lock also serializes commits of the same period.
func (d *DB) WithPeriodLock(ctx context.Context, year, month int, fn func(tx db.AssignmentTx) error) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to lock period %04d-%02d: %w", year, month, err)
	}
	defer tx.Rollback()

	if err := fn(&assignmentTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type assignmentTx struct {
	tx *sql.Tx
}

func (t *assignmentTx) GetAssignments(ctx context.Context, year, month int) ([]db.Assignment, error) {
	return getAssignments(ctx, t.tx, year, month)
}

func (t *assignmentTx) InsertAssignments(ctx context.Context, assignments []db.Assignment) error {
	for _, a := range assignments {
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO assignment (id, year, month, slot_id, service_date, service_time, position,
				volunteer_id, status, provenance, run_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, a.ID, a.Year, a.Month, a.SlotID, a.Date.Format(dateLayout), a.Time, a.Position,
			nullable(a.VolunteerID), a.Status, a.Provenance, nullable(a.RunID))
		if err != nil {
			return fmt.Errorf("failed to insert assignment %s: %w", a.ID, err)
		}
	}
	return nil
}

func (t *assignmentTx) UpdateAssignments(ctx context.Context, assignments []db.Assignment) error {
	for _, a := range assignments {
		result, err := t.tx.ExecContext(ctx, `
			UPDATE assignment
			SET slot_id = ?, volunteer_id = ?, status = ?, provenance = ?, run_id = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, a.SlotID, nullable(a.VolunteerID), a.Status, a.Provenance, nullable(a.RunID), a.ID)
		if err != nil {
			return fmt.Errorf("failed to update assignment %s: %w", a.ID, err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("failed to update assignment %s: %w", a.ID, db.ErrNotFound)
		}
	}
	return nil
}

func (t *assignmentTx) SupersedeAssignments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := t.tx.ExecContext(ctx,
		`UPDATE assignment SET status = 'superseded', updated_at = CURRENT_TIMESTAMP WHERE id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("failed to supersede assignments: %w", err)
	}
	return nil
}

func (t *assignmentTx) UpdateLastService(ctx context.Context, lastService map[string]time.Time) error {
	for volunteerID, at := range lastService {
		stamp := formatTimestamp(at)
		_, err := t.tx.ExecContext(ctx, `
			UPDATE volunteer SET last_service = ?
			WHERE id = ? AND (last_service IS NULL OR last_service < ?)
		`, stamp, volunteerID, stamp)
		if err != nil {
			return fmt.Errorf("failed to update last service of %s: %w", volunteerID, err)
		}
	}
	return nil
}

// GetLastServedBefore returns the latest scheduled or pinned seat of each volunteer dated
// before the given day. SQLite takes the bare columns from the row holding the maximum.
func (d *DB) GetLastServedBefore(ctx context.Context, before time.Time) ([]db.Assignment, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT volunteer_id, service_date, service_time, MAX(service_date || ' ' || service_time)
		FROM assignment
		WHERE volunteer_id IS NOT NULL
			AND status IN ('scheduled', 'pinned')
			AND service_date < ?
		GROUP BY volunteer_id
		ORDER BY volunteer_id
	`, before.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query service history: %w", err)
	}
	defer rows.Close()

	var served []db.Assignment
	for rows.Next() {
		var a db.Assignment
		var date, latest string
		if err := rows.Scan(&a.VolunteerID, &date, &a.Time, &latest); err != nil {
			return nil, fmt.Errorf("failed to scan service history: %w", err)
		}
		if a.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("service history of %s has invalid date: %w", a.VolunteerID, err)
		}
		served = append(served, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service history: %w", err)
	}
	return served, nil
}

func getAssignments(ctx context.Context, q queryer, year, month int) ([]db.Assignment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, year, month, slot_id, service_date, service_time, position,
			volunteer_id, status, provenance, run_id
		FROM assignment
		WHERE year = ? AND month = ?
		ORDER BY service_date, service_time, position, id
	`, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []db.Assignment
	for rows.Next() {
		var a db.Assignment
		var date string
		var volunteerID, runID sql.NullString
		if err := rows.Scan(&a.ID, &a.Year, &a.Month, &a.SlotID, &date, &a.Time, &a.Position,
			&volunteerID, &a.Status, &a.Provenance, &runID); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		if a.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("assignment %s has invalid date: %w", a.ID, err)
		}
		a.VolunteerID = volunteerID.String
		a.RunID = runID.String
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}
	return assignments, nil
}
