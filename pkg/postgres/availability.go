package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/parish-roster/pkg/db"
)

// GetAvailabilityRecords retrieves every submission for a period, oldest first
func (d *DB) GetAvailabilityRecords(ctx context.Context, year, month int) ([]db.AvailabilityRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, volunteer_id, year, month, payload::text, submitted_at
		FROM availability
		WHERE year = $1 AND month = $2
		ORDER BY submitted_at, id
	`, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability: %w", err)
	}
	defer rows.Close()

	var records []db.AvailabilityRecord
	for rows.Next() {
		var r db.AvailabilityRecord
		var payload string
		if err := rows.Scan(&r.ID, &r.VolunteerID, &r.Year, &r.Month, &payload, &r.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		r.Payload = []byte(payload)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availability: %w", err)
	}

	return records, nil
}

// InsertAvailabilityRecords inserts submissions, ignoring IDs already stored
func (d *DB) InsertAvailabilityRecords(ctx context.Context, records []db.AvailabilityRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		_, err := tx.Exec(ctx, `
			INSERT INTO availability (id, volunteer_id, year, month, payload, submitted_at)
			VALUES ($1, $2, $3, $4, $5::jsonb, $6)
			ON CONFLICT (id) DO NOTHING
		`, r.ID, r.VolunteerID, r.Year, r.Month, string(r.Payload), r.SubmittedAt)
		if err != nil {
			return fmt.Errorf("failed to insert availability %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
