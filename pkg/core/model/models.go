package model

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the civil date format used for slot dates and map keys
const DateLayout = "2006-01-02"

// TimeLayout is the wall-clock format used for slot times ("HH:MM")
const TimeLayout = "15:04"

type Role string

const (
	RoleMinister    Role = "minister"
	RoleCoordinator Role = "coordinator"
	RoleManager     Role = "manager"
)

func (r Role) IsValid() bool {
	return r == RoleMinister || r == RoleCoordinator || r == RoleManager
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive || s == StatusPending
}

// Volunteer represents a ministry volunteer as seen by the roster generator
type Volunteer struct {
	ID          string
	DisplayName string
	Role        Role
	Status      Status
	LastService *time.Time // nullable
	SpouseID    string     // Empty string if no linked spouse
}

type QuestionnaireStatus string

const (
	QuestionnaireDraft  QuestionnaireStatus = "draft"
	QuestionnaireClosed QuestionnaireStatus = "closed"
)

func (q QuestionnaireStatus) IsValid() bool {
	return q == QuestionnaireDraft || q == QuestionnaireClosed
}

// ErrInvalidPeriod is returned when a period descriptor has an out-of-range year or month
var ErrInvalidPeriod = errors.New("invalid period")

// Period identifies the calendar month a roster is generated for
type Period struct {
	Year                int
	Month               time.Month
	QuestionnaireStatus QuestionnaireStatus
}

// Validate checks the year and month are usable
func (p Period) Validate() error {
	if p.Year < 2000 || p.Year > 2100 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidPeriod, p.Year)
	}
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidPeriod, int(p.Month))
	}
	return nil
}

// Start returns the first day of the period (UTC midnight)
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the period (UTC midnight)
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

// Key returns a stable "YYYY-MM" identifier for the period
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) String() string {
	return p.Key()
}

type SlotType string

const (
	SlotSundayMass   SlotType = "sunday_mass"
	SlotWeekdayMass  SlotType = "weekday_mass"
	SlotSpecialEvent SlotType = "special_event"
	SlotFeast        SlotType = "feast"
)

// Slot is a required (date, time, type) duty opportunity with staffing bounds
type Slot struct {
	ID       string
	Date     time.Time // civil date, UTC midnight
	Time     string    // "HH:MM"
	Type     SlotType
	MinStaff int
	MaxStaff int
	Location string
	Label    string

	// EventKey is the special-event flag a volunteer must have set to serve this slot.
	// Empty for sunday_mass and weekday_mass slots.
	EventKey string
}

// SlotID builds the deterministic identifier for a slot
func SlotID(date time.Time, clock string, slotType SlotType) string {
	return fmt.Sprintf("%s_%s_%s", date.Format(DateLayout), clock, slotType)
}

// DateKey returns the slot date formatted as "YYYY-MM-DD"
func (s Slot) DateKey() string {
	return s.Date.Format(DateLayout)
}

// StartsAt returns the slot's start instant in the given location
func (s Slot) StartsAt(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	clock, err := time.Parse(TimeLayout, s.Time)
	if err != nil {
		return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), 0, 0, 0, 0, loc)
	}
	return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
}

type AssignmentStatus string

const (
	AssignmentScheduled  AssignmentStatus = "scheduled"
	AssignmentPinned     AssignmentStatus = "pinned"
	AssignmentVacant     AssignmentStatus = "vacant"
	AssignmentSuperseded AssignmentStatus = "superseded"
)

type Provenance string

const (
	ProvenanceGenerated Provenance = "generated"
	ProvenanceManual    Provenance = "manual"
)

// Assignment binds a volunteer (or an explicit vacancy) to one position of a slot
type Assignment struct {
	ID          string
	SlotID      string
	Date        time.Time
	Time        string
	Position    int
	VolunteerID string // nullable, empty encodes a vacancy
	Status      AssignmentStatus
	Provenance  Provenance
}

// IsPinned reports whether generation runs must leave this assignment untouched
func (a Assignment) IsPinned() bool {
	return a.Status == AssignmentPinned || a.Provenance == ProvenanceManual
}

// IsVacancy reports whether this assignment is an explicit vacancy record
func (a Assignment) IsVacancy() bool {
	return a.VolunteerID == ""
}

// Key identifies the (date, time, position) seat this assignment occupies
func (a Assignment) Key() AssignmentKey {
	return AssignmentKey{Date: a.Date.Format(DateLayout), Time: a.Time, Position: a.Position}
}

// AssignmentKey is the merge key for assignments
type AssignmentKey struct {
	Date     string
	Time     string
	Position int
}

func (k AssignmentKey) String() string {
	return fmt.Sprintf("%s %s #%d", k.Date, k.Time, k.Position)
}
