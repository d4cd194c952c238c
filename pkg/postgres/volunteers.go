package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/parish-roster/pkg/db"
)

// GetVolunteers retrieves all volunteer records ordered by ID
func (d *DB) GetVolunteers(ctx context.Context) ([]db.Volunteer, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, display_name, role, status, last_service, spouse_id
		FROM volunteer
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteers: %w", err)
	}
	defer rows.Close()

	var volunteers []db.Volunteer
	for rows.Next() {
		var v db.Volunteer
		var spouseID *string
		if err := rows.Scan(&v.ID, &v.DisplayName, &v.Role, &v.Status, &v.LastService, &spouseID); err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		if spouseID != nil {
			v.SpouseID = *spouseID
		}
		volunteers = append(volunteers, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteers: %w", err)
	}

	return volunteers, nil
}

// UpsertVolunteers inserts volunteers or refreshes their profile fields.
// An existing last service is kept when the incoming record has none.
func (d *DB) UpsertVolunteers(ctx context.Context, volunteers []db.Volunteer) error {
	if len(volunteers) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, v := range volunteers {
		_, err := tx.Exec(ctx, `
			INSERT INTO volunteer (id, display_name, role, status, last_service, spouse_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				display_name = EXCLUDED.display_name,
				role = EXCLUDED.role,
				status = EXCLUDED.status,
				last_service = COALESCE(EXCLUDED.last_service, volunteer.last_service),
				spouse_id = EXCLUDED.spouse_id
		`, v.ID, v.DisplayName, v.Role, v.Status, v.LastService, nullable(v.SpouseID))
		if err != nil {
			return fmt.Errorf("failed to upsert volunteer %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
