package allocator

import (
	"fmt"

	"github.com/jakechorley/parish-roster/pkg/core/eligibility"
)

const coreInvariantName = "CoreInvariant"

// IsCandidateValid checks if a candidate may be seated in a slot.
//
// Core checks:
//   - The eligibility matrix admits the candidate for the slot
//   - The candidate does not already hold a seat in the slot
//
// Then every criterion must agree.
func IsCandidateValid(state *RosterState, candidate *Candidate, slot *Slot, criteria []Criterion) bool {
	if state.matchFor(candidate.ID, slot) == eligibility.NoMatch {
		return false
	}
	if slot.HasVolunteer(candidate.ID) {
		return false
	}
	for _, criterion := range criteria {
		if !criterion.IsCandidateValid(state, candidate, slot) {
			return false
		}
	}
	return true
}

// ValidateRosterState runs the core invariant checks followed by every criterion's
// validation. Errors are reported in slot order per check
func ValidateRosterState(state *RosterState, criteria []Criterion) []SlotValidationError {
	errors := validateCoreInvariants(state)
	for _, criterion := range criteria {
		errors = append(errors, criterion.ValidateRosterState(state)...)
	}
	return errors
}

// validateCoreInvariants checks properties the engine guarantees on its own:
//   - No slot holds more than MaxStaff volunteers
//   - No volunteer holds two seats of the same slot
//   - Every generated seat is held by an eligible volunteer
func validateCoreInvariants(state *RosterState) []SlotValidationError {
	var errors []SlotValidationError

	for _, slot := range state.Slots {
		if filled := slot.FilledCount(); filled > slot.MaxStaff {
			errors = append(errors, SlotValidationError{
				SlotIndex:     slot.Index,
				SlotID:        slot.ID,
				CriterionName: coreInvariantName,
				Description:   fmt.Sprintf("Slot holds %d volunteers but maxStaff is %d", filled, slot.MaxStaff),
			})
		}

		seen := make(map[string]bool)
		for _, seat := range slot.Seats {
			if seat.VolunteerID == "" {
				continue
			}
			if seen[seat.VolunteerID] {
				errors = append(errors, SlotValidationError{
					SlotIndex:     slot.Index,
					SlotID:        slot.ID,
					CriterionName: coreInvariantName,
					Description:   fmt.Sprintf("Volunteer %s holds more than one seat", seat.VolunteerID),
				})
			}
			seen[seat.VolunteerID] = true

			if !seat.Pinned && state.matchFor(seat.VolunteerID, slot) == eligibility.NoMatch {
				errors = append(errors, SlotValidationError{
					SlotIndex:     slot.Index,
					SlotID:        slot.ID,
					CriterionName: coreInvariantName,
					Description:   fmt.Sprintf("Volunteer %s is not eligible for position %d", seat.VolunteerID, seat.Position),
				})
			}
		}
	}

	return errors
}
