package calendar

import (
	"fmt"
	"slices"
	"time"

	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// Observance is a named monthly devotion with its own slot, e.g. the first Friday mass
type Observance struct {
	Name       string
	Recurrence string
	Time       string
	MinStaff   int
	MaxStaff   int
	Label      string
}

// NovenaWindow is the inclusive day range of the novena within its month
type NovenaWindow struct {
	Month    time.Month
	StartDay int
	EndDay   int
}

// FeastDay configures the monthly feast day and the month it becomes a festival
type FeastDay struct {
	Day           int
	FestivalMonth time.Month
}

// Options configures the parish calendar
type Options struct {
	Location    string
	Novena      NovenaWindow
	Feast       FeastDay
	Observances []Observance
}

// DefaultObservances are the first-Thursday, first-Friday and first-Saturday devotions
func DefaultObservances() []Observance {
	return []Observance{
		{Name: model.EventHealingLiberation, Recurrence: "FREQ=MONTHLY;BYDAY=+1TH", Time: "19:30", MinStaff: 20, MaxStaff: 28, Label: "Healing and liberation (1st Thursday)"},
		{Name: model.EventFirstFriday, Recurrence: "FREQ=MONTHLY;BYDAY=+1FR", Time: "06:30", MinStaff: 8, MaxStaff: 12, Label: "Sacred Heart (1st Friday)"},
		{Name: model.EventFirstSaturday, Recurrence: "FREQ=MONTHLY;BYDAY=+1SA", Time: "06:30", MinStaff: 8, MaxStaff: 12, Label: "Immaculate Heart (1st Saturday)"},
	}
}

// DefaultOptions returns the standard parish calendar
func DefaultOptions() Options {
	return Options{
		Novena:      NovenaWindow{Month: time.October, StartDay: 20, EndDay: 27},
		Feast:       FeastDay{Day: 28, FestivalMonth: time.October},
		Observances: DefaultObservances(),
	}
}

// RuleSet is an ordered list of rules, most specific first, plus the slot location
type RuleSet struct {
	Rules    []Rule
	Location string
}

// NewRuleSet builds the ordered rules for the given options.
//
// Priority (highest first):
//  1. Feast day (claims the day)
//  2. Novena window
//  3. Monthly observances
//  4. Sunday masses
//  5. Weekday masses (Monday-Friday) and the first-Saturday morning mass
func NewRuleSet(opts Options) (RuleSet, error) {
	var rules []Rule

	if opts.Feast.Day > 0 {
		if opts.Feast.Day > 31 {
			return RuleSet{}, fmt.Errorf("feast day %d out of range", opts.Feast.Day)
		}
		rules = append(rules, &FeastRule{
			Day:           opts.Feast.Day,
			FestivalMonth: opts.Feast.FestivalMonth,
			Weekday:       FeastWeekdayMasses,
			Saturday:      FeastSaturdayMasses,
			Sunday:        FeastSundayMasses,
			Festival:      FestivalFeastMasses,
		})
	}

	if opts.Novena.Month != 0 {
		if opts.Novena.StartDay < 1 || opts.Novena.EndDay < opts.Novena.StartDay || opts.Novena.EndDay > 31 {
			return RuleSet{}, fmt.Errorf("novena window %d-%d is invalid", opts.Novena.StartDay, opts.Novena.EndDay)
		}
		rules = append(rules, &NovenaRule{
			Month:    opts.Novena.Month,
			StartDay: opts.Novena.StartDay,
			EndDay:   opts.Novena.EndDay,
			Weekday:  NovenaWeekdayMass,
			Saturday: NovenaSaturdayMass,
		})
	}

	for i, obs := range opts.Observances {
		recurrence, err := NewRecurrence(obs.Recurrence)
		if err != nil {
			return RuleSet{}, fmt.Errorf("observance %d (%s): %w", i, obs.Name, err)
		}
		rules = append(rules, &RecurringRule{
			RuleName:   obs.Name,
			Recurrence: recurrence,
			Type:       model.SlotSpecialEvent,
			Templates:  []SlotTemplate{{Time: obs.Time, MinStaff: obs.MinStaff, MaxStaff: obs.MaxStaff, Label: obs.Label}},
			EventKey:   obs.Name,
		})
	}

	rules = append(rules,
		&RecurringRule{
			RuleName:   "Sunday",
			Recurrence: MustRecurrence("FREQ=WEEKLY;BYDAY=SU"),
			Type:       model.SlotSundayMass,
			Templates:  SundayMasses,
		},
		&RecurringRule{
			RuleName:   "Weekday",
			Recurrence: MustRecurrence("FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"),
			Type:       model.SlotWeekdayMass,
			Templates:  []SlotTemplate{WeekdayMass},
		},
		&RecurringRule{
			RuleName:   "FirstSaturday",
			Recurrence: MustRecurrence("FREQ=MONTHLY;BYDAY=+1SA"),
			Type:       model.SlotWeekdayMass,
			Templates:  []SlotTemplate{WeekdayMass},
		},
	)

	return RuleSet{Rules: rules, Location: opts.Location}, nil
}

// BuildSlots expands the rules over every day of the period.
//
// For each day the rules are applied in priority order. A slot time already taken by a
// higher-priority rule is not emitted again, and an exclusive outcome stops lower rules.
// The result is ordered by date then time and is identical for identical inputs.
func BuildSlots(period model.Period, rules RuleSet) ([]model.Slot, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	var slots []model.Slot
	end := period.End()
	for day := period.Start(); !day.After(end); day = day.AddDate(0, 0, 1) {
		daySlots, err := buildDay(day, rules)
		if err != nil {
			return nil, err
		}
		slots = append(slots, daySlots...)
	}

	return slots, nil
}

func buildDay(day time.Time, rules RuleSet) ([]model.Slot, error) {
	taken := make(map[string]bool)
	var daySlots []model.Slot

	for _, rule := range rules.Rules {
		outcome := rule.Apply(day)
		if outcome == nil {
			continue
		}

		for _, slot := range outcome.Slots {
			if taken[slot.Time] {
				continue
			}
			if err := validateSlot(slot); err != nil {
				return nil, fmt.Errorf("rule %s on %s: %w", rule.Name(), day.Format(model.DateLayout), err)
			}
			taken[slot.Time] = true
			slot.Location = rules.Location
			daySlots = append(daySlots, slot)
		}

		if outcome.Exclusive {
			break
		}
	}

	slices.SortStableFunc(daySlots, func(a, b model.Slot) int {
		if a.Time < b.Time {
			return -1
		}
		if a.Time > b.Time {
			return 1
		}
		return 0
	})

	return daySlots, nil
}

func validateSlot(slot model.Slot) error {
	if _, err := time.Parse(model.TimeLayout, slot.Time); err != nil {
		return fmt.Errorf("slot time %q is not HH:MM", slot.Time)
	}
	if slot.MaxStaff < 1 {
		return fmt.Errorf("slot %s has maxStaff %d", slot.ID, slot.MaxStaff)
	}
	if slot.MinStaff > slot.MaxStaff {
		return fmt.Errorf("slot %s has minStaff %d above maxStaff %d", slot.ID, slot.MinStaff, slot.MaxStaff)
	}
	return nil
}
