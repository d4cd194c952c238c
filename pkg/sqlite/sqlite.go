package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jakechorley/parish-roster/pkg/db"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05Z"
)

var _ db.Database = (*DB)(nil)

// DB provides roster persistence in a local SQLite file
type DB struct {
	conn *sql.DB
}

// NewDB opens the database at path. Transactions take the write lock when they begin,
// so period locks serialize all writers.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database file
func (d *DB) Close() {
	_ = d.conn.Close()
}

// RunMigrations creates the schema when it does not exist
func (d *DB) RunMigrations(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS volunteer (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			role TEXT NOT NULL,
			status TEXT NOT NULL,
			last_service TEXT,
			spouse_id TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS period (
			year INTEGER NOT NULL,
			month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
			questionnaire_status TEXT NOT NULL DEFAULT 'draft',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (year, month)
		)`,

		`CREATE TABLE IF NOT EXISTS availability (
			id TEXT PRIMARY KEY,
			volunteer_id TEXT NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			payload TEXT NOT NULL,
			submitted_at TEXT NOT NULL,
			FOREIGN KEY (volunteer_id) REFERENCES volunteer(id)
		)`,

		`CREATE TABLE IF NOT EXISTS assignment (
			id TEXT PRIMARY KEY,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			slot_id TEXT NOT NULL,
			service_date TEXT NOT NULL,
			service_time TEXT NOT NULL,
			position INTEGER NOT NULL CHECK (position >= 1),
			volunteer_id TEXT,
			status TEXT NOT NULL,
			provenance TEXT NOT NULL,
			run_id TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (volunteer_id) REFERENCES volunteer(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_availability_period ON availability(year, month)`,
		`CREATE INDEX IF NOT EXISTS idx_assignment_period ON assignment(year, month)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_assignment_active_seat
			ON assignment(service_date, service_time, position) WHERE status <> 'superseded'`,
	}

	for _, q := range queries {
		if _, err := d.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
