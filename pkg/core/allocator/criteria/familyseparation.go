package criteria

import (
	"fmt"

	rostering "github.com/jakechorley/parish-roster/pkg/core/allocator"
)

// FamilySeparationCriterion keeps spouses apart when either of them asked to serve
// separately.
//
// Validity:
//   - Returns false if the candidate's spouse already holds a seat in the slot and either
//     of them prefers to serve apart
//
// Validation:
//   - Reports slots where such a couple was seated together by the run. Pinned seats are
//     an administrator decision and are not reported
type FamilySeparationCriterion struct{}

// NewFamilySeparationCriterion creates a new FamilySeparationCriterion
func NewFamilySeparationCriterion() *FamilySeparationCriterion {
	return &FamilySeparationCriterion{}
}

func (c *FamilySeparationCriterion) Name() string {
	return "FamilySeparation"
}

func (c *FamilySeparationCriterion) IsCandidateValid(state *rostering.RosterState, candidate *rostering.Candidate, slot *rostering.Slot) bool {
	if candidate.SpouseID == "" || !slot.HasVolunteer(candidate.SpouseID) {
		return true
	}
	return !servesApart(state, candidate.ID, candidate.SpouseID)
}

func (c *FamilySeparationCriterion) ValidateRosterState(state *rostering.RosterState) []rostering.SlotValidationError {
	var errors []rostering.SlotValidationError

	for _, slot := range state.Slots {
		for _, seat := range slot.Seats {
			if seat.Pinned || seat.VolunteerID == "" {
				continue
			}
			candidate, ok := state.Candidates[seat.VolunteerID]
			if !ok || candidate.SpouseID == "" {
				continue
			}
			if slot.HasVolunteer(candidate.SpouseID) && servesApart(state, candidate.ID, candidate.SpouseID) {
				errors = append(errors, rostering.SlotValidationError{
					SlotIndex:     slot.Index,
					SlotID:        slot.ID,
					CriterionName: c.Name(),
					Description:   fmt.Sprintf("Volunteer %s is serving with spouse %s despite asking to serve apart", candidate.ID, candidate.SpouseID),
				})
			}
		}
	}

	return errors
}

func servesApart(state *rostering.RosterState, volunteerID, spouseID string) bool {
	return state.Eligibility.ServesApart(volunteerID) || state.Eligibility.ServesApart(spouseID)
}
