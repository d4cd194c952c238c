package db

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// VolunteerStore defines the interface for volunteer database operations
type VolunteerStore interface {
	GetVolunteers(ctx context.Context) ([]Volunteer, error)
}

// PeriodStore defines the interface for period database operations
type PeriodStore interface {
	// GetPeriod returns ErrNotFound when the period has never been stored
	GetPeriod(ctx context.Context, year, month int) (*Period, error)
	UpsertPeriod(ctx context.Context, period Period) error
}

// AvailabilityStore defines the interface for availability database operations
type AvailabilityStore interface {
	GetAvailabilityRecords(ctx context.Context, year, month int) ([]AvailabilityRecord, error)
}

// AssignmentReader reads the assignments of a period, superseded ones included
type AssignmentReader interface {
	GetAssignments(ctx context.Context, year, month int) ([]Assignment, error)
}

// ServiceHistoryReader reads the service history used for fairness ranking
type ServiceHistoryReader interface {
	// GetLastServedBefore returns the latest scheduled or pinned seat of each volunteer
	// dated strictly before the given day. Superseded records are ignored.
	GetLastServedBefore(ctx context.Context, before time.Time) ([]Assignment, error)
}

// AssignmentTx is the write surface available while a period lock is held.
// Every call runs in the same transaction.
type AssignmentTx interface {
	AssignmentReader
	InsertAssignments(ctx context.Context, assignments []Assignment) error
	UpdateAssignments(ctx context.Context, assignments []Assignment) error
	SupersedeAssignments(ctx context.Context, ids []string) error

	// UpdateLastService moves each volunteer's last service forward, never backward
	UpdateLastService(ctx context.Context, lastService map[string]time.Time) error
}

// PeriodLocker serializes writers of the same period
type PeriodLocker interface {
	// WithPeriodLock runs fn in a transaction holding the period's lock. The transaction
	// commits when fn returns nil and rolls back otherwise.
	WithPeriodLock(ctx context.Context, year, month int, fn func(tx AssignmentTx) error) error
}

// Database defines the interface for all database operations.
// Both postgres.DB and sqlite.DB implement this interface.
type Database interface {
	VolunteerStore
	PeriodStore
	AvailabilityStore
	AssignmentReader
	ServiceHistoryReader
	PeriodLocker
	UpsertVolunteers(ctx context.Context, volunteers []Volunteer) error
	InsertAvailabilityRecords(ctx context.Context, records []AvailabilityRecord) error
	RunMigrations(ctx context.Context) error
	Close()
}

// PeriodLockKey maps a period to the integer key used for advisory locks
func PeriodLockKey(year, month int) int64 {
	return int64(year)*100 + int64(month)
}
