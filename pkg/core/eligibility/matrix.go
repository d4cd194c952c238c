package eligibility

import (
	"github.com/jakechorley/parish-roster/pkg/core/availability"
	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// Matrix holds the precomputed match for every (slot, volunteer) pair of a run
type Matrix struct {
	matches       map[string]map[string]Match
	canSubstitute map[string]bool
	servesApart   map[string]bool
}

// BuildMatrix evaluates the filter for every volunteer against every slot.
// Volunteers missing from availabilities have no record and match nothing.
func BuildMatrix(
	filter *Filter,
	volunteers []model.Volunteer,
	slots []model.Slot,
	availabilities map[string]*availability.Availability,
) *Matrix {
	m := &Matrix{
		matches:       make(map[string]map[string]Match, len(slots)),
		canSubstitute: make(map[string]bool),
		servesApart:   make(map[string]bool),
	}

	for _, slot := range slots {
		row := make(map[string]Match)
		for _, v := range volunteers {
			if match := filter.Match(v, slot, availabilities[v.ID]); match != NoMatch {
				row[v.ID] = match
			}
		}
		m.matches[slot.ID] = row
	}

	for _, v := range volunteers {
		a := availabilities[v.ID]
		if a == nil {
			continue
		}
		if a.CanSubstitute && filter.CanServe(v) {
			m.canSubstitute[v.ID] = true
		}
		if a.FamilyServePreference == availability.FamilySeparately {
			m.servesApart[v.ID] = true
		}
	}

	return m
}

// Match returns the match for a volunteer in a slot
func (m *Matrix) Match(volunteerID, slotID string) Match {
	if m == nil {
		return NoMatch
	}
	return m.matches[slotID][volunteerID]
}

// CanSubstitute reports whether the volunteer offered to stand in as a substitute
func (m *Matrix) CanSubstitute(volunteerID string) bool {
	if m == nil {
		return false
	}
	return m.canSubstitute[volunteerID]
}

// EligibleCount returns the number of volunteers eligible for the slot
func (m *Matrix) EligibleCount(slotID string) int {
	if m == nil {
		return 0
	}
	return len(m.matches[slotID])
}

// ServesApart reports whether the volunteer asked not to serve in the same slot as their spouse
func (m *Matrix) ServesApart(volunteerID string) bool {
	if m == nil {
		return false
	}
	return m.servesApart[volunteerID]
}
