package criteria

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rostering "github.com/jakechorley/parish-roster/pkg/core/allocator"
	"github.com/jakechorley/parish-roster/pkg/core/availability"
	"github.com/jakechorley/parish-roster/pkg/core/eligibility"
	"github.com/jakechorley/parish-roster/pkg/core/model"
)

var sunday = time.Date(2025, time.December, 28, 0, 0, 0, 0, time.UTC)

func slot(clock string, slotType model.SlotType, minStaff, maxStaff int) model.Slot {
	s := model.Slot{
		ID:       model.SlotID(sunday, clock, slotType),
		Date:     sunday,
		Time:     clock,
		Type:     slotType,
		MinStaff: minStaff,
		MaxStaff: maxStaff,
	}
	if slotType != model.SlotSundayMass {
		s.EventKey = model.EventKey(model.EventFeast, s.Date, clock)
	}
	return s
}

func ministers(ids ...string) []model.Volunteer {
	var volunteers []model.Volunteer
	for _, id := range ids {
		volunteers = append(volunteers, model.Volunteer{ID: id, Role: model.RoleMinister, Status: model.StatusActive})
	}
	return volunteers
}

// availableForAll marks every volunteer available (and preferred) for every slot
func availableForAll(volunteers []model.Volunteer, slots []model.Slot) map[string]*availability.Availability {
	avail := make(map[string]*availability.Availability)
	for _, v := range volunteers {
		a := availability.Empty(availability.FormatStructured)
		for _, s := range slots {
			if s.Type == model.SlotSundayMass {
				if a.Sundays[s.DateKey()] == nil {
					a.Sundays[s.DateKey()] = map[string]bool{}
				}
				a.Sundays[s.DateKey()][s.Time] = true
				a.PreferredTimes[s.Time] = true
			} else {
				a.SpecialEvents[s.EventKey] = true
			}
		}
		avail[v.ID] = a
	}
	return avail
}

func allocate(t *testing.T, slots []model.Slot, volunteers []model.Volunteer, avail map[string]*availability.Availability, tolerance int) *rostering.AllocationOutcome {
	t.Helper()
	outcome, err := rostering.Allocate(rostering.AllocationConfig{
		Criteria:               Default(),
		Slots:                  slots,
		Volunteers:             volunteers,
		Eligibility:            eligibility.BuildMatrix(eligibility.NewFilter(nil), volunteers, slots, avail),
		PairingTolerance:       tolerance,
		AlternateOnlyPenalty:   rostering.DefaultAlternateOnlyPenalty,
		LowConfidenceThreshold: rostering.DefaultLowConfidenceThreshold,
	})
	require.NoError(t, err)
	return outcome
}

func seatedIn(outcome *rostering.AllocationOutcome, slotID string) []string {
	var ids []string
	for _, a := range outcome.Assignments {
		if a.SlotID == slotID && a.VolunteerID != "" {
			ids = append(ids, a.VolunteerID)
		}
	}
	return ids
}

func TestSlotCapacityCriterion_Name(t *testing.T) {
	assert.Equal(t, "SlotCapacity", NewSlotCapacityCriterion().Name())
}

func TestSlotCapacityCriterion_ReportsUnderstaffedSlots(t *testing.T) {
	slots := []model.Slot{slot("10:00", model.SlotFeast, 3, 4)}
	volunteers := ministers("v1", "v2")

	outcome := allocate(t, slots, volunteers, availableForAll(volunteers, slots), 0)

	require.Len(t, outcome.ValidationErrors, 1)
	assert.Equal(t, "SlotCapacity", outcome.ValidationErrors[0].CriterionName)
	assert.Equal(t, slots[0].ID, outcome.ValidationErrors[0].SlotID)
	assert.Contains(t, outcome.ValidationErrors[0].Description, "has 2 volunteers but minStaff is 3")
	assert.False(t, outcome.Success)
}

func TestSlotCapacityCriterion_IsCandidateValid(t *testing.T) {
	criterion := NewSlotCapacityCriterion()
	full := &rostering.Slot{Seats: []*rostering.Seat{{Position: 1, VolunteerID: "v1"}}}
	open := &rostering.Slot{Seats: []*rostering.Seat{{Position: 1}}}
	candidate := &rostering.Candidate{}

	assert.False(t, criterion.IsCandidateValid(&rostering.RosterState{}, candidate, full))
	assert.True(t, criterion.IsCandidateValid(&rostering.RosterState{}, candidate, open))
}

func TestNoDoubleBookingCriterion_SameStartIsRejected(t *testing.T) {
	mass := slot("10:00", model.SlotSundayMass, 1, 1)
	feast := slot("10:00", model.SlotFeast, 1, 1)
	evening := slot("19:00", model.SlotFeast, 1, 1)
	slots := []model.Slot{mass, feast, evening}
	volunteers := ministers("v1", "v2")

	outcome := allocate(t, slots, volunteers, availableForAll(volunteers, slots), 0)

	assert.Empty(t, outcome.ValidationErrors)
	both := append(seatedIn(outcome, mass.ID), seatedIn(outcome, feast.ID)...)
	assert.ElementsMatch(t, []string{"v1", "v2"}, both, "each volunteer serves one of the 10:00 slots")
	// Serving twice on the same day is fine
	assert.Len(t, seatedIn(outcome, evening.ID), 1)
}

func TestNoDoubleBookingCriterion_ValidateRosterState(t *testing.T) {
	criterion := NewNoDoubleBookingCriterion()
	a := &rostering.Slot{Slot: slot("10:00", model.SlotSundayMass, 1, 1), Index: 0, Seats: []*rostering.Seat{{Position: 1, VolunteerID: "v1"}}}
	b := &rostering.Slot{Slot: slot("10:00", model.SlotFeast, 1, 1), Index: 1, Seats: []*rostering.Seat{{Position: 1, VolunteerID: "v1"}}}
	c := &rostering.Slot{Slot: slot("19:00", model.SlotFeast, 1, 1), Index: 2, Seats: []*rostering.Seat{{Position: 1, VolunteerID: "v1"}}}

	errors := criterion.ValidateRosterState(&rostering.RosterState{Slots: []*rostering.Slot{a, b, c}})

	require.Len(t, errors, 1)
	assert.Equal(t, b.ID, errors[0].SlotID)
	assert.Contains(t, errors[0].Description, "also serving "+a.ID)
}

func TestFamilySeparationCriterion_KeepsCoupleApart(t *testing.T) {
	mass := slot("10:00", model.SlotSundayMass, 2, 2)
	slots := []model.Slot{mass}
	volunteers := ministers("a", "b", "c")
	volunteers[0].SpouseID = "b"
	volunteers[1].SpouseID = "a"

	avail := availableForAll(volunteers, slots)
	avail["b"].FamilyServePreference = availability.FamilySeparately

	outcome := allocate(t, slots, volunteers, avail, 2)

	assert.Equal(t, []string{"a", "c"}, seatedIn(outcome, mass.ID))
	assert.Empty(t, outcome.ValidationErrors)
}

func TestFamilySeparationCriterion_AllowsCoupleTogether(t *testing.T) {
	mass := slot("10:00", model.SlotSundayMass, 2, 2)
	slots := []model.Slot{mass}
	volunteers := ministers("a", "b", "c")
	volunteers[0].SpouseID = "b"
	volunteers[1].SpouseID = "a"

	avail := availableForAll(volunteers, slots)
	avail["b"].FamilyServePreference = availability.FamilyTogether

	outcome := allocate(t, slots, volunteers, avail, 2)

	assert.Equal(t, []string{"a", "b"}, seatedIn(outcome, mass.ID))
	assert.Equal(t, 1, outcome.Quality.PairsPlaced)
}

func TestFamilySeparationCriterion_ValidateIgnoresPinnedSeats(t *testing.T) {
	mass := slot("10:00", model.SlotSundayMass, 2, 2)
	volunteers := ministers("a", "b")
	volunteers[0].SpouseID = "b"
	volunteers[1].SpouseID = "a"
	avail := availableForAll(volunteers, []model.Slot{mass})
	avail["a"].FamilyServePreference = availability.FamilySeparately

	state := &rostering.RosterState{
		Eligibility: eligibility.BuildMatrix(eligibility.NewFilter(nil), volunteers, []model.Slot{mass}, avail),
		Candidates: map[string]*rostering.Candidate{
			"a": {Volunteer: volunteers[0]},
			"b": {Volunteer: volunteers[1]},
		},
		Slots: []*rostering.Slot{{
			Slot: mass,
			Seats: []*rostering.Seat{
				{Position: 1, VolunteerID: "a", Pinned: true},
				{Position: 2, VolunteerID: "b"},
			},
		}},
	}

	errors := NewFamilySeparationCriterion().ValidateRosterState(state)

	require.Len(t, errors, 1)
	assert.Contains(t, errors[0].Description, "Volunteer b is serving with spouse a")
}
