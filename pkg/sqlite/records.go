package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jakechorley/parish-roster/pkg/db"
)

// GetVolunteers retrieves all volunteer records ordered by ID
func (d *DB) GetVolunteers(ctx context.Context) ([]db.Volunteer, error) {
	rows, err := d.conn.QueryContext(ctx, `
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
		var lastService, spouseID sql.NullString
		if err := rows.Scan(&v.ID, &v.DisplayName, &v.Role, &v.Status, &lastService, &spouseID); err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		if lastService.Valid {
			at, err := parseTimestamp(lastService.String)
			if err != nil {
				return nil, fmt.Errorf("volunteer %s has invalid last service: %w", v.ID, err)
			}
			v.LastService = &at
		}
		v.SpouseID = spouseID.String
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

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, v := range volunteers {
		var lastService sql.NullString
		if v.LastService != nil {
			lastService = nullable(formatTimestamp(*v.LastService))
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO volunteer (id, display_name, role, status, last_service, spouse_id)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				display_name = excluded.display_name,
				role = excluded.role,
				status = excluded.status,
				last_service = COALESCE(excluded.last_service, volunteer.last_service),
				spouse_id = excluded.spouse_id
		`, v.ID, v.DisplayName, v.Role, v.Status, lastService, nullable(v.SpouseID))
		if err != nil {
			return fmt.Errorf("failed to upsert volunteer %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPeriod retrieves one period, or db.ErrNotFound
func (d *DB) GetPeriod(ctx context.Context, year, month int) (*db.Period, error) {
	p := db.Period{Year: year, Month: month}
	err := d.conn.QueryRowContext(ctx, `
		SELECT questionnaire_status FROM period WHERE year = ? AND month = ?
	`, year, month).Scan(&p.QuestionnaireStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query period %04d-%02d: %w", year, month, err)
	}
	return &p, nil
}

// UpsertPeriod creates the period or updates its questionnaire status
func (d *DB) UpsertPeriod(ctx context.Context, period db.Period) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO period (year, month, questionnaire_status)
		VALUES (?, ?, ?)
		ON CONFLICT (year, month) DO UPDATE SET
			questionnaire_status = excluded.questionnaire_status,
			updated_at = CURRENT_TIMESTAMP
	`, period.Year, period.Month, period.QuestionnaireStatus)
	if err != nil {
		return fmt.Errorf("failed to upsert period %04d-%02d: %w", period.Year, period.Month, err)
	}
	return nil
}

// GetAvailabilityRecords retrieves every submission for a period, oldest first
func (d *DB) GetAvailabilityRecords(ctx context.Context, year, month int) ([]db.AvailabilityRecord, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, volunteer_id, year, month, payload, submitted_at
		FROM availability
		WHERE year = ? AND month = ?
		ORDER BY submitted_at, id
	`, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability: %w", err)
	}
	defer rows.Close()

	var records []db.AvailabilityRecord
	for rows.Next() {
		var r db.AvailabilityRecord
		var payload, submittedAt string
		if err := rows.Scan(&r.ID, &r.VolunteerID, &r.Year, &r.Month, &payload, &submittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		if r.SubmittedAt, err = parseTimestamp(submittedAt); err != nil {
			return nil, fmt.Errorf("availability %s has invalid submission time: %w", r.ID, err)
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

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO availability (id, volunteer_id, year, month, payload, submitted_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING
		`, r.ID, r.VolunteerID, r.Year, r.Month, string(r.Payload), formatTimestamp(r.SubmittedAt))
		if err != nil {
			return fmt.Errorf("failed to insert availability %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
