package criteria

import (
	"fmt"

	rostering "github.com/jakechorley/parish-roster/pkg/core/allocator"
)

// NoDoubleBookingCriterion prevents a volunteer from serving two slots that start at the
// same date and time. Serving several masses on the same day is allowed.
//
// Validity:
//   - Returns false if the candidate already holds a seat in another slot with the same
//     date and time
//
// Validation:
//   - Reports every volunteer seated in two slots with the same date and time
type NoDoubleBookingCriterion struct{}

// NewNoDoubleBookingCriterion creates a new NoDoubleBookingCriterion
func NewNoDoubleBookingCriterion() *NoDoubleBookingCriterion {
	return &NoDoubleBookingCriterion{}
}

func (c *NoDoubleBookingCriterion) Name() string {
	return "NoDoubleBooking"
}

func (c *NoDoubleBookingCriterion) IsCandidateValid(state *rostering.RosterState, candidate *rostering.Candidate, slot *rostering.Slot) bool {
	for _, idx := range candidate.AssignedSlotIndices {
		if idx == slot.Index {
			continue
		}
		other := state.Slots[idx]
		if sameStart(other, slot) {
			return false
		}
	}
	return true
}

func (c *NoDoubleBookingCriterion) ValidateRosterState(state *rostering.RosterState) []rostering.SlotValidationError {
	var errors []rostering.SlotValidationError

	// "date time" -> volunteer ID -> first slot seen
	seen := make(map[string]map[string]*rostering.Slot)

	for _, slot := range state.Slots {
		start := startKey(slot)
		if seen[start] == nil {
			seen[start] = make(map[string]*rostering.Slot)
		}

		for _, seat := range slot.Seats {
			if seat.VolunteerID == "" {
				continue
			}
			first, ok := seen[start][seat.VolunteerID]
			if ok && first.Index != slot.Index {
				errors = append(errors, rostering.SlotValidationError{
					SlotIndex:     slot.Index,
					SlotID:        slot.ID,
					CriterionName: c.Name(),
					Description:   fmt.Sprintf("Volunteer %s is also serving %s at the same time", seat.VolunteerID, first.ID),
				})
				continue
			}
			seen[start][seat.VolunteerID] = slot
		}
	}

	return errors
}

func startKey(slot *rostering.Slot) string {
	return slot.DateKey() + " " + slot.Time
}

func sameStart(a, b *rostering.Slot) bool {
	return startKey(a) == startKey(b)
}
