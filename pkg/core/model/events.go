package model

import (
	"fmt"
	"time"
)

// Event names shared by the calendar rules and the survey formats
const (
	EventHealingLiberation = "healing_liberation"
	EventFirstFriday       = "first_friday"
	EventFirstSaturday     = "first_saturday"
	EventNovena            = "saint_judas_novena"
	EventFeast             = "saint_judas_feast"
)

// EventKey builds the special-event key for a multi-slot event at a given date and time.
//
// Examples:
//   - EventKey("saint_judas_feast", 2025-10-28, "07:00") -> "saint_judas_feast|2025-10-28|07:00"
func EventKey(name string, date time.Time, clock string) string {
	return fmt.Sprintf("%s|%s|%s", name, date.Format(DateLayout), clock)
}
