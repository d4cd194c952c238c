package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/parish-roster/pkg/core/model"
)

func TestNormalizeStructured_FullPayload(t *testing.T) {
	raw := `{
		"format_version": "2.0",
		"masses": {
			"2025-10-05": {"08:00": true, "10:00": false},
			"2025-10-12": {"10:00": true, "19:00": true}
		},
		"preferred_times": ["10h"],
		"weekdays": {"monday": true, "tuesday": false, "wednesday": true, "thursday": false, "friday": false},
		"special_events": {
			"first_friday": true,
			"healing_liberation": false,
			"saint_judas_novena": ["2025-10-20_19:30", "2025-10-24_19:30"],
			"saint_judas_feast": {"2025-10-28_07:00": true, "2025-10-28_19:30": false}
		},
		"can_substitute": true,
		"notes": "only mornings",
		"family_serve_preference": "together"
	}`

	result, warnings := Normalize([]byte(raw), october2025)

	assert.Empty(t, warnings)

	available, preferred := result.SundayTime("2025-10-12", "10:00")
	assert.True(t, available)
	assert.True(t, preferred)

	available, preferred = result.SundayTime("2025-10-05", "08:00")
	assert.True(t, available)
	assert.False(t, preferred, "08:00 is not in preferred_times")

	available, _ = result.SundayTime("2025-10-05", "10:00")
	assert.False(t, available, "explicit false")

	assert.True(t, result.Weekday(time.Monday))
	assert.True(t, result.Weekday(time.Wednesday))
	assert.False(t, result.Weekday(time.Tuesday))

	assert.True(t, result.Event(model.EventFirstFriday))
	assert.False(t, result.Event(model.EventHealingLiberation))
	assert.True(t, result.Event("saint_judas_novena|2025-10-20|19:30"))
	assert.True(t, result.Event("saint_judas_novena|2025-10-24|19:30"))
	assert.True(t, result.Event("saint_judas_feast|2025-10-28|07:00"))
	assert.False(t, result.Event("saint_judas_feast|2025-10-28|19:30"))

	assert.True(t, result.CanSubstitute)
	assert.Equal(t, "only mornings", result.Notes)
	assert.Equal(t, FamilyTogether, result.FamilyServePreference)
}

func TestNormalizeStructured_Sentinels(t *testing.T) {
	raw := `{
		"format_version": "2.0",
		"masses": {"2025-10-05": {"08:00": true}},
		"weekdays": {"monday": true},
		"no_sundays": true,
		"no_weekdays": true
	}`

	result, warnings := Normalize([]byte(raw), october2025)

	assert.Empty(t, warnings)
	available, _ := result.SundayTime("2025-10-05", "08:00")
	assert.False(t, available)
	assert.False(t, result.Weekday(time.Monday))
}

func TestNormalizeStructured_UnknownFieldsAreUnmapped(t *testing.T) {
	raw := `{
		"format_version": "2.0",
		"weekdays": {"monday": true, "saturday": true},
		"adoration": "yes",
		"special_events": {"saint_judas_feast": 12}
	}`

	result, warnings := Normalize([]byte(raw), october2025)

	require.Len(t, warnings, 3)
	assert.Equal(t, "adoration", warnings[0].QuestionKey)
	assert.Equal(t, WarningUnmapped, warnings[0].Kind)
	assert.Equal(t, "special_events.saint_judas_feast", warnings[1].QuestionKey)
	assert.Equal(t, WarningMalformed, warnings[1].Kind)
	assert.Equal(t, "weekdays.saturday", warnings[2].QuestionKey)

	assert.Contains(t, result.Unmapped, "adoration")
	assert.Contains(t, result.Unmapped, "weekdays.saturday")
	assert.True(t, result.Weekday(time.Monday))
	assert.False(t, result.Weekday(time.Saturday))
}

func TestNormalizeStructured_MalformedSectionDoesNotAbort(t *testing.T) {
	raw := `{
		"format_version": "2.0",
		"masses": ["2025-10-05"],
		"weekdays": {"friday": true}
	}`

	result, warnings := Normalize([]byte(raw), october2025)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarningMalformed, warnings[0].Kind)
	assert.Equal(t, "masses", warnings[0].QuestionKey)
	assert.True(t, result.Weekday(time.Friday))
}
