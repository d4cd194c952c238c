package allocator

import (
	"fmt"
	"time"

	"github.com/jakechorley/parish-roster/pkg/core/availability"
	"github.com/jakechorley/parish-roster/pkg/core/eligibility"
	"github.com/jakechorley/parish-roster/pkg/core/model"
)

func date(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func sundaySlot(day, clock string, minStaff, maxStaff int) model.Slot {
	d := date(day)
	return model.Slot{
		ID:       model.SlotID(d, clock, model.SlotSundayMass),
		Date:     d,
		Time:     clock,
		Type:     model.SlotSundayMass,
		MinStaff: minStaff,
		MaxStaff: maxStaff,
	}
}

func feastSlot(day, clock string, minStaff, maxStaff int) model.Slot {
	d := date(day)
	return model.Slot{
		ID:       model.SlotID(d, clock, model.SlotFeast),
		Date:     d,
		Time:     clock,
		Type:     model.SlotFeast,
		MinStaff: minStaff,
		MaxStaff: maxStaff,
		EventKey: model.EventKey(model.EventFeast, d, clock),
	}
}

func ministers(ids ...string) []model.Volunteer {
	volunteers := make([]model.Volunteer, 0, len(ids))
	for _, id := range ids {
		volunteers = append(volunteers, model.Volunteer{ID: id, DisplayName: id, Role: model.RoleMinister, Status: model.StatusActive})
	}
	return volunteers
}

func numberedIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%02d", prefix, i+1)
	}
	return ids
}

// records collects availability per volunteer for a test
type records map[string]*availability.Availability

func (r records) get(id string) *availability.Availability {
	a, ok := r[id]
	if !ok {
		a = availability.Empty(availability.FormatStructured)
		r[id] = a
	}
	return a
}

// sunday marks the volunteer available at the Sunday slot, preferred or not
func (r records) sunday(id string, slot model.Slot, preferred bool) {
	a := r.get(id)
	if a.Sundays[slot.DateKey()] == nil {
		a.Sundays[slot.DateKey()] = map[string]bool{}
	}
	a.Sundays[slot.DateKey()][slot.Time] = true
	if preferred {
		a.PreferredTimes[slot.Time] = true
	}
}

func (r records) event(id string, slot model.Slot) {
	r.get(id).SpecialEvents[slot.EventKey] = true
}

func testConfig(slots []model.Slot, volunteers []model.Volunteer, avail records) AllocationConfig {
	return AllocationConfig{
		Slots:                  slots,
		Volunteers:             volunteers,
		Eligibility:            eligibility.BuildMatrix(eligibility.NewFilter(nil), volunteers, slots, avail),
		AlternateOnlyPenalty:   DefaultAlternateOnlyPenalty,
		LowConfidenceThreshold: DefaultLowConfidenceThreshold,
	}
}

// seated returns the volunteer IDs per position of the generated assignments of a slot
func seated(outcome *AllocationOutcome, slotID string) map[int]string {
	seats := make(map[int]string)
	for _, a := range outcome.Assignments {
		if a.SlotID == slotID && !a.IsVacancy() {
			seats[a.Position] = a.VolunteerID
		}
	}
	return seats
}

func vacancies(outcome *AllocationOutcome, slotID string) []int {
	var positions []int
	for _, a := range outcome.Assignments {
		if a.SlotID == slotID && a.IsVacancy() {
			positions = append(positions, a.Position)
		}
	}
	return positions
}

func slotOutcome(outcome *AllocationOutcome, slotID string) SlotOutcome {
	for _, s := range outcome.Slots {
		if s.SlotID == slotID {
			return s
		}
	}
	return SlotOutcome{}
}

type mockCriterion struct {
	name    string
	reject  map[string]bool
	invalid []SlotValidationError
}

func (m *mockCriterion) Name() string {
	return m.name
}

func (m *mockCriterion) IsCandidateValid(state *RosterState, candidate *Candidate, slot *Slot) bool {
	return !m.reject[candidate.ID]
}

func (m *mockCriterion) ValidateRosterState(state *RosterState) []SlotValidationError {
	return m.invalid
}
