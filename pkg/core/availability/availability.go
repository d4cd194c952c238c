package availability

import (
	"encoding/json"
	"strings"
	"time"
)

// Format identifies which survey payload layout a record was read from
type Format string

const (
	FormatLegacy     Format = "legacy"
	FormatStructured Format = "structured"
	FormatUnknown    Format = "unknown"
)

// Availability is the canonical view of one volunteer's answers for a period.
//
// Every lookup is default-closed: a missing map or key means "not available".
// Sentinel flags (NoSundays, NoWeekdays) record an explicit "none" answer and take
// precedence over anything left in the corresponding map.
type Availability struct {
	Format Format

	// Sundays maps "YYYY-MM-DD" -> "HH:MM" -> available
	Sundays map[string]map[string]bool

	// PreferredTimes are the Sunday times the volunteer marked as their main choice.
	// Other true times in Sundays are alternates.
	PreferredTimes map[string]bool

	// NoSundays is set when the volunteer explicitly answered "no Sundays"
	NoSundays bool

	// Weekdays holds Monday..Friday availability for recurring weekday masses
	Weekdays map[time.Weekday]bool

	// NoWeekdays is set when the volunteer explicitly answered "cannot serve weekdays"
	NoWeekdays bool

	// SpecialEvents maps event keys (see EventKey) to availability
	SpecialEvents map[string]bool

	CanSubstitute         bool
	Notes                 string
	FamilyServePreference FamilyPreference

	// Unmapped retains question keys that have no canonical field, verbatim
	Unmapped map[string]json.RawMessage
}

// Empty returns an availability with no answers, which is unavailable for everything
func Empty(format Format) *Availability {
	return &Availability{
		Format:                format,
		FamilyServePreference: FamilyFlexible,
		Sundays:               map[string]map[string]bool{},
		PreferredTimes:        map[string]bool{},
		Weekdays:              map[time.Weekday]bool{},
		SpecialEvents:         map[string]bool{},
		Unmapped:              map[string]json.RawMessage{},
	}
}

// SundayTime reports whether the volunteer is available at the given Sunday date and time,
// and whether that time is one of their preferred times.
func (a *Availability) SundayTime(date, clock string) (available bool, preferred bool) {
	if a == nil || a.NoSundays {
		return false, false
	}
	times, ok := a.Sundays[date]
	if !ok || !times[clock] {
		return false, false
	}
	return true, a.PreferredTimes[clock]
}

// Weekday reports whether the volunteer marked the given weekday as available
func (a *Availability) Weekday(day time.Weekday) bool {
	if a == nil || a.NoWeekdays {
		return false
	}
	return a.Weekdays[day]
}

// Event reports whether the volunteer marked the given event key as available
func (a *Availability) Event(key string) bool {
	if a == nil || key == "" {
		return false
	}
	return a.SpecialEvents[key]
}

func (a *Availability) setSunday(date, clock string, value bool) {
	times, ok := a.Sundays[date]
	if !ok {
		times = map[string]bool{}
		a.Sundays[date] = times
	}
	// An explicit true is never downgraded by a later false for the same slot
	times[clock] = times[clock] || value
}

// FamilyPreference records whether a volunteer wants to serve alongside their spouse
type FamilyPreference string

const (
	FamilyTogether   FamilyPreference = "together"
	FamilySeparately FamilyPreference = "separately"
	FamilyFlexible   FamilyPreference = "flexible"
)

// ParseFamilyPreference maps free-text answers ("juntos", "Separados", "together") onto a
// FamilyPreference. Anything unrecognised is flexible.
func ParseFamilyPreference(answer string) FamilyPreference {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	switch {
	case strings.Contains(normalized, "juntos") || normalized == string(FamilyTogether):
		return FamilyTogether
	case strings.Contains(normalized, "separad") || normalized == string(FamilySeparately):
		return FamilySeparately
	default:
		return FamilyFlexible
	}
}

// WarningKind classifies a normalization warning
type WarningKind string

const (
	WarningMalformed WarningKind = "malformed"
	WarningUnmapped  WarningKind = "unmapped"
	WarningAmbiguous WarningKind = "ambiguous"
)

// Warning describes a problem found while normalizing one payload.
// Warnings never abort normalization.
type Warning struct {
	Kind        WarningKind
	QuestionKey string
	Message     string
}

func (w Warning) String() string {
	if w.QuestionKey == "" {
		return string(w.Kind) + ": " + w.Message
	}
	return string(w.Kind) + " [" + w.QuestionKey + "]: " + w.Message
}
