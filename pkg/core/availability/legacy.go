package availability

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// Legacy question identifiers
const (
	qMonthlyAvailability   = "monthly_availability"
	qMainServiceTime       = "main_service_time"
	qAvailableSundays      = "available_sundays"
	qOtherTimesAvailable   = "other_times_available"
	qDailyMassAvailability = "daily_mass_availability"
	qDailyMassDays         = "daily_mass_days"
	qHealingLiberation     = "healing_liberation_mass"
	qSacredHeart           = "sacred_heart_mass"
	qImmaculateHeart       = "immaculate_heart_mass"
	qSaintJudasNovena      = "saint_judas_novena"
	qCanSubstitute         = "can_substitute"
	qNotes                 = "notes"
	qFamilyServePreference = "family_serve_preference"

	qFeastPrefix        = "saint_judas_feast_"
	qSpecialEventPrefix = "special_event_"
)

// legacySundayTimes are the Sunday mass times the legacy questionnaire offered
var legacySundayTimes = []string{"08:00", "10:00", "19:00"}

// legacyFeastTimes maps the suffix of saint_judas_feast_* questions to a mass time
var legacyFeastTimes = map[string]string{
	"7h":      "07:00",
	"10h":     "10:00",
	"12h":     "12:00",
	"15h":     "15:00",
	"17h":     "17:00",
	"evening": "19:30",
}

var legacyWeekdays = map[string]time.Weekday{
	"segunda": time.Monday,
	"terca":   time.Tuesday,
	"terça":   time.Tuesday,
	"quarta":  time.Wednesday,
	"quinta":  time.Thursday,
	"sexta":   time.Friday,
}

var legacySimpleEvents = map[string]string{
	qHealingLiberation: model.EventHealingLiberation,
	qSacredHeart:       model.EventFirstFriday,
	qImmaculateHeart:   model.EventFirstSaturday,
}

var (
	dayMonthPattern = regexp.MustCompile(`(\d{1,2})/(\d{1,2})`)
	hourPattern     = regexp.MustCompile(`(\d{1,2})h(\d{2})?`)
)

// legacyState collects answers that only make sense once the whole list has been read
type legacyState struct {
	monthlyOptOut  bool
	preferredTime  string
	sundayDates    []string
	alternateTimes []string
	dailyMode      string
	dailyDays      []time.Weekday
}

// normalizeLegacy scans the flat answer list for known question keys and sentinel answers
func normalizeLegacy(p LegacyPayload, opts Options) (*Availability, []Warning) {
	result := Empty(FormatLegacy)
	var warnings []Warning
	state := &legacyState{}

	for _, entry := range p.Answers {
		key := strings.TrimSpace(entry.QuestionID)
		if key == "" {
			warnings = append(warnings, Warning{Kind: WarningMalformed, Message: "answer without questionId ignored"})
			continue
		}
		warnings = append(warnings, readLegacyAnswer(result, state, key, entry.Answer, opts)...)
	}

	applyLegacySundays(result, state)
	applyLegacyWeekdays(result, state)

	if state.monthlyOptOut {
		result.NoSundays = true
		result.NoWeekdays = true
	}

	return result, warnings
}

func readLegacyAnswer(result *Availability, state *legacyState, key string, raw json.RawMessage, opts Options) []Warning {
	switch {
	case key == qMonthlyAvailability:
		answer, _ := answerString(raw)
		if isNo(answer) {
			state.monthlyOptOut = true
		}

	case key == qMainServiceTime:
		answer, _ := answerString(raw)
		clock, ok := NormalizeClock(answer)
		if !ok {
			return []Warning{{Kind: WarningAmbiguous, QuestionKey: key, Message: fmt.Sprintf("unrecognised time %q", answer)}}
		}
		state.preferredTime = clock

	case key == qAvailableSundays:
		return readLegacySundays(result, state, key, raw, opts)

	case key == qOtherTimesAvailable:
		return readLegacyOtherTimes(state, key, raw)

	case key == qDailyMassAvailability:
		answer, _ := answerString(raw)
		state.dailyMode = answer

	case key == qDailyMassDays:
		var warnings []Warning
		for _, name := range answerStrings(raw) {
			day, ok := parseLegacyWeekday(name)
			if !ok {
				warnings = append(warnings, Warning{Kind: WarningAmbiguous, QuestionKey: key, Message: fmt.Sprintf("unrecognised weekday %q", name)})
				continue
			}
			state.dailyDays = append(state.dailyDays, day)
		}
		return warnings

	case legacySimpleEvents[key] != "":
		result.SpecialEvents[legacySimpleEvents[key]] = answerYes(raw)

	case key == qSaintJudasNovena:
		return readLegacyNovena(result, key, raw, opts)

	case strings.HasPrefix(key, qFeastPrefix):
		clock, ok := legacyFeastTimes[strings.TrimPrefix(key, qFeastPrefix)]
		if !ok {
			result.Unmapped[key] = raw
			return []Warning{unmapped(key)}
		}
		date := time.Date(opts.Period.Year, opts.Period.Month, opts.FeastDay, 0, 0, 0, 0, time.UTC)
		result.SpecialEvents[model.EventKey(model.EventFeast, date, clock)] = answerYes(raw)

	case strings.HasPrefix(key, qSpecialEventPrefix):
		result.SpecialEvents[strings.TrimPrefix(key, qSpecialEventPrefix)] = answerYes(raw)

	case key == qCanSubstitute:
		result.CanSubstitute = answerYes(raw)

	case key == qNotes:
		result.Notes, _ = answerString(raw)

	case key == qFamilyServePreference:
		answer, _ := answerString(raw)
		result.FamilyServePreference = ParseFamilyPreference(answer)

	default:
		result.Unmapped[key] = raw
		return []Warning{unmapped(key)}
	}

	return nil
}

func readLegacySundays(result *Availability, state *legacyState, key string, raw json.RawMessage, opts Options) []Warning {
	var warnings []Warning
	for _, entry := range answerStrings(raw) {
		if isNoneSentinel(entry) {
			result.NoSundays = true
			continue
		}
		date, ok := parseDayMonth(entry, opts.Period)
		if !ok {
			warnings = append(warnings, Warning{Kind: WarningAmbiguous, QuestionKey: key, Message: fmt.Sprintf("unrecognised Sunday %q", entry)})
			continue
		}
		state.sundayDates = append(state.sundayDates, date.Format(model.DateLayout))
	}
	return warnings
}

// readLegacyOtherTimes accepts "Sim"/"Não" or {"answer": "Sim", "selectedOptions": ["10h", ...]}
func readLegacyOtherTimes(state *legacyState, key string, raw json.RawMessage) []Warning {
	var withOptions struct {
		Answer          json.RawMessage `json:"answer"`
		SelectedOptions []string        `json:"selectedOptions"`
	}
	if err := json.Unmarshal(raw, &withOptions); err == nil && withOptions.Answer != nil {
		if !answerYes(withOptions.Answer) {
			return nil
		}
		if len(withOptions.SelectedOptions) == 0 {
			state.alternateTimes = append(state.alternateTimes, legacySundayTimes...)
			return nil
		}
		var warnings []Warning
		for _, option := range withOptions.SelectedOptions {
			clock, ok := NormalizeClock(option)
			if !ok {
				warnings = append(warnings, Warning{Kind: WarningAmbiguous, QuestionKey: key, Message: fmt.Sprintf("unrecognised time %q", option)})
				continue
			}
			state.alternateTimes = append(state.alternateTimes, clock)
		}
		return warnings
	}

	if answerYes(raw) {
		state.alternateTimes = append(state.alternateTimes, legacySundayTimes...)
	}
	return nil
}

func readLegacyNovena(result *Availability, key string, raw json.RawMessage, opts Options) []Warning {
	var warnings []Warning
	for _, entry := range answerStrings(raw) {
		if isNoneSentinel(entry) {
			continue
		}
		date, ok := parseDayMonth(entry, opts.Period)
		hour := hourPattern.FindStringSubmatch(entry)
		if !ok || hour == nil {
			warnings = append(warnings, Warning{Kind: WarningAmbiguous, QuestionKey: key, Message: fmt.Sprintf("unrecognised novena entry %q", entry)})
			continue
		}
		clock, ok := NormalizeClock(hour[0])
		if !ok {
			warnings = append(warnings, Warning{Kind: WarningAmbiguous, QuestionKey: key, Message: fmt.Sprintf("unrecognised novena time %q", entry)})
			continue
		}
		result.SpecialEvents[model.EventKey(model.EventNovena, date, clock)] = true
	}
	return warnings
}

// applyLegacySundays expands each available Sunday into its preferred and alternate times
func applyLegacySundays(result *Availability, state *legacyState) {
	if state.preferredTime != "" {
		result.PreferredTimes[state.preferredTime] = true
	}

	for _, date := range state.sundayDates {
		if state.preferredTime != "" {
			result.setSunday(date, state.preferredTime, true)
		}
		for _, clock := range state.alternateTimes {
			result.setSunday(date, clock, true)
		}
	}
}

func applyLegacyWeekdays(result *Availability, state *legacyState) {
	switch {
	case state.dailyMode == "":
		// Question not answered: only explicitly listed days count
	case isNo(state.dailyMode):
		result.NoWeekdays = true
	case answerYesString(state.dailyMode):
		for _, day := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday} {
			result.Weekdays[day] = true
		}
	}

	for _, day := range state.dailyDays {
		result.Weekdays[day] = true
	}
}

func answerString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), true
	}
	return "", false
}

// answerStrings accepts either a list of strings or a single string
func answerStrings(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	if s, ok := answerString(raw); ok && s != "" {
		return []string{s}
	}
	return nil
}

func answerYes(raw json.RawMessage) bool {
	s, ok := answerString(raw)
	return ok && answerYesString(s)
}

func answerYesString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "sim", "yes", "true", "s":
		return true
	}
	return strings.HasPrefix(s, "sim,") || strings.HasPrefix(s, "sim ")
}

func isNo(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "não", "nao", "no", "false", "n":
		return true
	}
	return strings.HasPrefix(s, "não posso") || strings.HasPrefix(s, "nao posso")
}

// isNoneSentinel matches the explicit "none" choices ("Nenhum domingo", "Nenhum dia")
func isNoneSentinel(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "nenhum") || strings.HasPrefix(s, "nenhuma") || isNo(s)
}

func parseDayMonth(s string, period model.Period) (time.Time, bool) {
	m := dayMonthPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	date := time.Date(period.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

func parseLegacyWeekday(name string) (time.Weekday, bool) {
	s := strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexAny(s, " -"); i >= 0 {
		s = s[:i]
	}
	day, ok := legacyWeekdays[s]
	return day, ok
}
