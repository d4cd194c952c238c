package allocator

import (
	"fmt"

	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// IgnoredPin is a pinned assignment that could not be placed on a seat of this run
type IgnoredPin struct {
	Assignment model.Assignment
	Reason     string
}

// ApplyPinned reserves the seats held by pinned or manual assignments.
//
// Pinned volunteers are seated regardless of their availability and count toward the
// slot's fill. A pinned vacancy (no volunteer) reserves the seat as deliberately empty.
// Non-pinned and superseded assignments are ignored silently. Pins that reference an
// unknown slot, a position outside 1..MaxStaff or an already reserved seat are returned
// as IgnoredPin entries.
func (a *Allocator) ApplyPinned(pinned []model.Assignment) []IgnoredPin {
	ignored := []IgnoredPin{}

	byID := make(map[string]*Slot, len(a.state.Slots))
	byDateTime := make(map[string]*Slot, len(a.state.Slots))
	for _, slot := range a.state.Slots {
		byID[slot.ID] = slot
		byDateTime[slot.DateKey()+" "+slot.Time] = slot
	}

	for _, assignment := range pinned {
		if !assignment.IsPinned() || assignment.Status == model.AssignmentSuperseded {
			continue
		}

		slot := byID[assignment.SlotID]
		if slot == nil {
			slot = byDateTime[assignment.Date.Format(model.DateLayout)+" "+assignment.Time]
		}
		if slot == nil {
			ignored = append(ignored, IgnoredPin{Assignment: assignment, Reason: "no slot at this date and time"})
			continue
		}

		if assignment.Position < 1 || assignment.Position > len(slot.Seats) {
			ignored = append(ignored, IgnoredPin{
				Assignment: assignment,
				Reason:     fmt.Sprintf("position %d outside 1..%d", assignment.Position, len(slot.Seats)),
			})
			continue
		}

		seat := slot.Seats[assignment.Position-1]
		if seat.Pinned {
			ignored = append(ignored, IgnoredPin{Assignment: assignment, Reason: "seat already pinned"})
			continue
		}

		if assignment.VolunteerID != "" && slot.HasVolunteer(assignment.VolunteerID) {
			ignored = append(ignored, IgnoredPin{Assignment: assignment, Reason: "volunteer already pinned to this slot"})
			continue
		}

		seat.Pinned = true
		seat.VolunteerID = assignment.VolunteerID
		if assignment.VolunteerID != "" {
			a.candidate(assignment.VolunteerID).recordService(slot.Index, a.state.StartsAt(slot))
		}
	}

	return ignored
}
