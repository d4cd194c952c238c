package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/parish-roster/pkg/db"
)

// GetPeriod retrieves one period, or db.ErrNotFound
func (d *DB) GetPeriod(ctx context.Context, year, month int) (*db.Period, error) {
	p := db.Period{Year: year, Month: month}
	err := d.pool.QueryRow(ctx, `
		SELECT questionnaire_status FROM period WHERE year = $1 AND month = $2
	`, year, month).Scan(&p.QuestionnaireStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query period %04d-%02d: %w", year, month, err)
	}
	return &p, nil
}

// UpsertPeriod creates the period or updates its questionnaire status
func (d *DB) UpsertPeriod(ctx context.Context, period db.Period) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO period (year, month, questionnaire_status)
		VALUES ($1, $2, $3)
		ON CONFLICT (year, month) DO UPDATE SET
			questionnaire_status = EXCLUDED.questionnaire_status,
			updated_at = NOW()
	`, period.Year, period.Month, period.QuestionnaireStatus)
	if err != nil {
		return fmt.Errorf("failed to upsert period %04d-%02d: %w", period.Year, period.Month, err)
	}
	return nil
}
