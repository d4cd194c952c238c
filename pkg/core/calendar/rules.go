package calendar

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// Rule produces the slots one calendar rule contributes to a given day.
//
// Apply returns nil when the rule does not apply to the day. Rules are pure:
// the same day always yields the same outcome.
type Rule interface {
	// Name returns a human-readable identifier for this rule
	Name() string

	// Apply returns the rule's slots for the day, or nil if the rule does not apply
	Apply(day time.Time) *Outcome
}

// Outcome is what a rule contributes to one day
type Outcome struct {
	Slots []model.Slot

	// Exclusive claims the whole day: rules with lower priority are not consulted
	Exclusive bool
}

// Recurrence matches days against an RFC 5545 recurrence rule evaluated per month.
// Monthly rules such as "FREQ=MONTHLY;BYDAY=+1FR" are anchored on the first of the
// day's month, so "+1FR" always means the first Friday of that month.
type Recurrence struct {
	rule string
}

// NewRecurrence validates the rrule string and returns a matcher for it
func NewRecurrence(rule string) (Recurrence, error) {
	if _, err := rrule.StrToRRule(rule); err != nil {
		return Recurrence{}, fmt.Errorf("invalid recurrence %q: %w", rule, err)
	}
	return Recurrence{rule: rule}, nil
}

// MustRecurrence is NewRecurrence for rule strings known at compile time
func MustRecurrence(rule string) Recurrence {
	r, err := NewRecurrence(rule)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Recurrence) String() string {
	return r.rule
}

// Matches reports whether the recurrence has an occurrence on the given day
func (r Recurrence) Matches(day time.Time) bool {
	// Parse per call so the matcher holds no mutable rrule state
	rule, err := rrule.StrToRRule(r.rule)
	if err != nil {
		return false
	}

	monthStart := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	rule.DTStart(monthStart)

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24*time.Hour - time.Second)

	return len(rule.Between(dayStart, dayEnd, true)) > 0
}

// RecurringRule emits fixed slots on every day matched by its recurrence
type RecurringRule struct {
	RuleName   string
	Recurrence Recurrence
	Type       model.SlotType
	Templates  []SlotTemplate

	// EventKey is copied to every slot; empty for regular masses
	EventKey string
}

func (r *RecurringRule) Name() string {
	return r.RuleName
}

func (r *RecurringRule) Apply(day time.Time) *Outcome {
	if !r.Recurrence.Matches(day) {
		return nil
	}

	slots := make([]model.Slot, 0, len(r.Templates))
	for _, tmpl := range r.Templates {
		slots = append(slots, newSlot(day, tmpl, r.Type, r.EventKey))
	}
	return &Outcome{Slots: slots}
}

// NovenaRule replaces the morning mass with an evening novena mass inside a date window.
//
// Monday-Thursday: evening novena slot only.
// Friday: the regular slots are kept and the novena slot is added.
// Saturday: the Saturday novena slot only.
// Sunday: not affected.
type NovenaRule struct {
	Month    time.Month
	StartDay int
	EndDay   int
	Weekday  SlotTemplate
	Saturday SlotTemplate
}

func (r *NovenaRule) Name() string {
	return "Novena"
}

func (r *NovenaRule) Apply(day time.Time) *Outcome {
	if day.Month() != r.Month || day.Day() < r.StartDay || day.Day() > r.EndDay {
		return nil
	}

	switch day.Weekday() {
	case time.Sunday:
		return nil
	case time.Saturday:
		return &Outcome{
			Slots:     []model.Slot{newSlot(day, r.Saturday, model.SlotSpecialEvent, model.EventKey(model.EventNovena, day, r.Saturday.Time))},
			Exclusive: true,
		}
	case time.Friday:
		return &Outcome{
			Slots: []model.Slot{newSlot(day, r.Weekday, model.SlotSpecialEvent, model.EventKey(model.EventNovena, day, r.Weekday.Time))},
		}
	default:
		return &Outcome{
			Slots:     []model.Slot{newSlot(day, r.Weekday, model.SlotSpecialEvent, model.EventKey(model.EventNovena, day, r.Weekday.Time))},
			Exclusive: true,
		}
	}
}

// FeastRule claims a fixed day of every month with a time set chosen by weekday,
// or the festival time set when the day falls in the festival month.
type FeastRule struct {
	Day           int
	FestivalMonth time.Month
	Weekday       []SlotTemplate
	Saturday      []SlotTemplate
	Sunday        []SlotTemplate
	Festival      []SlotTemplate
}

func (r *FeastRule) Name() string {
	return "Feast"
}

func (r *FeastRule) Apply(day time.Time) *Outcome {
	if day.Day() != r.Day {
		return nil
	}

	var templates []SlotTemplate
	switch {
	case day.Month() == r.FestivalMonth:
		templates = r.Festival
	case day.Weekday() == time.Sunday:
		templates = r.Sunday
	case day.Weekday() == time.Saturday:
		templates = r.Saturday
	default:
		templates = r.Weekday
	}

	slots := make([]model.Slot, 0, len(templates))
	for _, tmpl := range templates {
		slots = append(slots, newSlot(day, tmpl, model.SlotFeast, model.EventKey(model.EventFeast, day, tmpl.Time)))
	}
	return &Outcome{Slots: slots, Exclusive: true}
}

func newSlot(day time.Time, tmpl SlotTemplate, slotType model.SlotType, eventKey string) model.Slot {
	date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return model.Slot{
		ID:       model.SlotID(date, tmpl.Time, slotType),
		Date:     date,
		Time:     tmpl.Time,
		Type:     slotType,
		MinStaff: tmpl.MinStaff,
		MaxStaff: tmpl.MaxStaff,
		Label:    tmpl.Label,
		EventKey: eventKey,
	}
}
