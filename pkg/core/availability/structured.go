package availability

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jakechorley/parish-roster/pkg/core/model"
)

var structuredWeekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
}

// normalizeStructured reads the versioned structured layout.
// Fields are visited in sorted key order so that warnings are deterministic.
func normalizeStructured(p StructuredPayload, _ Options) (*Availability, []Warning) {
	result := Empty(FormatStructured)
	var warnings []Warning

	var preferredTimes []string
	preferredGiven := false

	keys := make([]string, 0, len(p.Fields))
	for key := range p.Fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		raw := p.Fields[key]
		switch key {
		case "format_version", "version":
			// Discriminator, already consumed by Decode

		case "masses":
			warnings = append(warnings, readStructuredMasses(result, raw)...)

		case "weekdays":
			warnings = append(warnings, readStructuredWeekdays(result, raw)...)

		case "special_events":
			warnings = append(warnings, readStructuredEvents(result, raw)...)

		case "preferred_times":
			var times []string
			if err := json.Unmarshal(raw, &times); err != nil {
				warnings = append(warnings, malformed(key, err))
				continue
			}
			preferredGiven = true
			for _, t := range times {
				clock, ok := NormalizeClock(t)
				if !ok {
					warnings = append(warnings, Warning{Kind: WarningAmbiguous, QuestionKey: key, Message: fmt.Sprintf("unrecognised time %q", t)})
					continue
				}
				preferredTimes = append(preferredTimes, clock)
			}

		case "can_substitute":
			warnings = append(warnings, readBool(raw, key, &result.CanSubstitute)...)

		case "no_sundays":
			warnings = append(warnings, readBool(raw, key, &result.NoSundays)...)

		case "no_weekdays":
			warnings = append(warnings, readBool(raw, key, &result.NoWeekdays)...)

		case "notes":
			warnings = append(warnings, readString(raw, key, &result.Notes)...)

		case "family_serve_preference":
			var answer string
			warnings = append(warnings, readString(raw, key, &answer)...)
			result.FamilyServePreference = ParseFamilyPreference(answer)

		default:
			result.Unmapped[key] = raw
			warnings = append(warnings, unmapped(key))
		}
	}

	if preferredGiven {
		for _, clock := range preferredTimes {
			result.PreferredTimes[clock] = true
		}
	} else {
		// Without an explicit preference every time the volunteer picked counts as preferred
		for _, times := range result.Sundays {
			for clock, ok := range times {
				if ok {
					result.PreferredTimes[clock] = true
				}
			}
		}
	}

	return result, warnings
}

func readStructuredMasses(result *Availability, raw json.RawMessage) []Warning {
	var masses map[string]map[string]bool
	if err := json.Unmarshal(raw, &masses); err != nil {
		return []Warning{malformed("masses", err)}
	}

	var warnings []Warning
	for _, dateKey := range sortedKeys(masses) {
		date, err := time.Parse(model.DateLayout, dateKey)
		if err != nil {
			warnings = append(warnings, Warning{Kind: WarningAmbiguous, QuestionKey: "masses", Message: fmt.Sprintf("unrecognised date %q", dateKey)})
			continue
		}
		for _, timeKey := range sortedKeys(masses[dateKey]) {
			clock, ok := NormalizeClock(timeKey)
			if !ok {
				warnings = append(warnings, Warning{Kind: WarningAmbiguous, QuestionKey: "masses", Message: fmt.Sprintf("unrecognised time %q on %s", timeKey, dateKey)})
				continue
			}
			result.setSunday(date.Format(model.DateLayout), clock, masses[dateKey][timeKey])
		}
	}
	return warnings
}

func readStructuredWeekdays(result *Availability, raw json.RawMessage) []Warning {
	var days map[string]bool
	if err := json.Unmarshal(raw, &days); err != nil {
		return []Warning{malformed("weekdays", err)}
	}

	var warnings []Warning
	for _, name := range sortedKeys(days) {
		day, ok := structuredWeekdays[strings.ToLower(name)]
		if !ok {
			key := "weekdays." + name
			value, _ := json.Marshal(days[name])
			result.Unmapped[key] = value
			warnings = append(warnings, unmapped(key))
			continue
		}
		result.Weekdays[day] = days[name]
	}
	return warnings
}

// readStructuredEvents expands each event into one flag per (event, date, time).
// Values may be a bool (simple event), a list of datetimes, or a datetime -> bool map.
func readStructuredEvents(result *Availability, raw json.RawMessage) []Warning {
	var events map[string]json.RawMessage
	if err := json.Unmarshal(raw, &events); err != nil {
		return []Warning{malformed("special_events", err)}
	}

	var warnings []Warning
	for _, name := range sortedKeys(events) {
		value := events[name]
		questionKey := "special_events." + name

		var flag bool
		if err := json.Unmarshal(value, &flag); err == nil {
			result.SpecialEvents[name] = flag
			continue
		}

		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			for _, entry := range list {
				date, clock, err := ParseEventDateTime(entry)
				if err != nil {
					warnings = append(warnings, Warning{Kind: WarningAmbiguous, QuestionKey: questionKey, Message: err.Error()})
					continue
				}
				result.SpecialEvents[model.EventKey(name, date, clock)] = true
			}
			continue
		}

		var slots map[string]bool
		if err := json.Unmarshal(value, &slots); err == nil {
			for _, entry := range sortedKeys(slots) {
				date, clock, err := ParseEventDateTime(entry)
				if err != nil {
					warnings = append(warnings, Warning{Kind: WarningAmbiguous, QuestionKey: questionKey, Message: err.Error()})
					continue
				}
				key := model.EventKey(name, date, clock)
				result.SpecialEvents[key] = result.SpecialEvents[key] || slots[entry]
			}
			continue
		}

		result.Unmapped[questionKey] = value
		warnings = append(warnings, Warning{Kind: WarningMalformed, QuestionKey: questionKey, Message: "expected bool, datetime list or datetime map"})
	}
	return warnings
}

func readBool(raw json.RawMessage, key string, dst *bool) []Warning {
	if err := json.Unmarshal(raw, dst); err != nil {
		return []Warning{malformed(key, err)}
	}
	return nil
}

func readString(raw json.RawMessage, key string, dst *string) []Warning {
	if err := json.Unmarshal(raw, dst); err != nil {
		return []Warning{malformed(key, err)}
	}
	return nil
}

func malformed(key string, err error) Warning {
	return Warning{Kind: WarningMalformed, QuestionKey: key, Message: err.Error()}
}

func unmapped(key string) Warning {
	return Warning{Kind: WarningUnmapped, QuestionKey: key, Message: "answer has no canonical field, retained as unmapped"}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
