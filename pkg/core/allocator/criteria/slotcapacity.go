package criteria

import (
	"fmt"

	rostering "github.com/jakechorley/parish-roster/pkg/core/allocator"
)

// SlotCapacityCriterion prevents overfilling of slots and reports understaffed ones.
//
// Validity:
//   - Returns false if the slot has no open seat left
//
// Validation:
//   - Reports slots holding fewer volunteers than MinStaff (understaffed)
//   - Reports slots holding more volunteers than MaxStaff (overfilled)
type SlotCapacityCriterion struct{}

// NewSlotCapacityCriterion creates a new SlotCapacityCriterion
func NewSlotCapacityCriterion() *SlotCapacityCriterion {
	return &SlotCapacityCriterion{}
}

func (c *SlotCapacityCriterion) Name() string {
	return "SlotCapacity"
}

func (c *SlotCapacityCriterion) IsCandidateValid(state *rostering.RosterState, candidate *rostering.Candidate, slot *rostering.Slot) bool {
	return !slot.IsFull()
}

func (c *SlotCapacityCriterion) ValidateRosterState(state *rostering.RosterState) []rostering.SlotValidationError {
	var errors []rostering.SlotValidationError

	for _, slot := range state.Slots {
		filled := slot.FilledCount()
		if filled < slot.MinStaff {
			errors = append(errors, rostering.SlotValidationError{
				SlotIndex:     slot.Index,
				SlotID:        slot.ID,
				CriterionName: c.Name(),
				Description:   fmt.Sprintf("Slot is understaffed: has %d volunteers but minStaff is %d", filled, slot.MinStaff),
			})
		} else if filled > slot.MaxStaff {
			errors = append(errors, rostering.SlotValidationError{
				SlotIndex:     slot.Index,
				SlotID:        slot.ID,
				CriterionName: c.Name(),
				Description:   fmt.Sprintf("Slot is overfilled: has %d volunteers but maxStaff is %d", filled, slot.MaxStaff),
			})
		}
	}

	return errors
}
