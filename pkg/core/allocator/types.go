package allocator

import (
	"slices"
	"time"

	"github.com/jakechorley/parish-roster/pkg/core/eligibility"
	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// RosterState represents the current state of the roster during generation
type RosterState struct {
	// Slots being filled, in calendar order. Slot.Index is the position in this slice
	Slots []*Slot

	// Candidates keyed by volunteer ID
	Candidates map[string]*Candidate

	// Eligibility is the precomputed (volunteer, slot) match matrix (read-only)
	Eligibility *eligibility.Matrix

	// Location is used to turn slot dates and times into service instants
	Location *time.Location

	// PairingTolerance is how many rank places a spouse may be pulled forward (0 disables pairing)
	PairingTolerance int
}

// Slot wraps a catalog slot with its seats for the run
type Slot struct {
	model.Slot

	// Index in the Slots array (for quick reference)
	Index int

	// Seats are positions 1..MaxStaff. Seats[i] is position i+1
	Seats []*Seat

	// Backups are volunteer IDs suggested as substitutes, in ranked order
	Backups []string

	// PairsPlaced counts spouses seated together by the pairing preference
	PairsPlaced int
}

// Seat is one position of a slot
type Seat struct {
	Position int

	// VolunteerID is empty while the seat is open or when it is a reserved vacancy
	VolunteerID string

	// Pinned seats come from existing manual assignments and are never filled by the run
	Pinned bool

	// Match records how the seated volunteer fit the slot (generated seats only)
	Match eligibility.Match
}

// IsOpen reports whether the run may still place a volunteer in this seat
func (s *Seat) IsOpen() bool {
	return !s.Pinned && s.VolunteerID == ""
}

// Candidate is a volunteer taking part in the run
type Candidate struct {
	model.Volunteer

	// EffectiveLastService is the later of the historical last service and the latest
	// slot this volunteer was seated in during the run. Nil means never served
	EffectiveLastService *time.Time

	// AssignedSlotIndices tracks which slots this volunteer has been seated in
	AssignedSlotIndices []int
}

// IsAssigned returns true if the candidate already holds a seat in the given slot
func (c *Candidate) IsAssigned(slotIndex int) bool {
	return slices.Contains(c.AssignedSlotIndices, slotIndex)
}

// recordService seats the candidate in the slot and moves the effective last service forward
func (c *Candidate) recordService(slotIndex int, at time.Time) {
	c.AssignedSlotIndices = append(c.AssignedSlotIndices, slotIndex)
	if c.EffectiveLastService == nil || at.After(*c.EffectiveLastService) {
		served := at
		c.EffectiveLastService = &served
	}
}

// FilledCount returns the number of seats holding a volunteer, pinned or generated
func (s *Slot) FilledCount() int {
	count := 0
	for _, seat := range s.Seats {
		if seat.VolunteerID != "" {
			count++
		}
	}
	return count
}

// GeneratedCount returns the number of seats filled by this run
func (s *Slot) GeneratedCount() int {
	count := 0
	for _, seat := range s.Seats {
		if !seat.Pinned && seat.VolunteerID != "" {
			count++
		}
	}
	return count
}

// OpenSeats returns the seats the run may still fill, lowest position first
func (s *Slot) OpenSeats() []*Seat {
	var open []*Seat
	for _, seat := range s.Seats {
		if seat.IsOpen() {
			open = append(open, seat)
		}
	}
	return open
}

// RemainingCapacity returns the number of seats still open
func (s *Slot) RemainingCapacity() int {
	return len(s.OpenSeats())
}

// IsFull returns true if no seat is open
func (s *Slot) IsFull() bool {
	return s.RemainingCapacity() == 0
}

// HasVolunteer reports whether the volunteer already holds any seat in this slot
func (s *Slot) HasVolunteer(volunteerID string) bool {
	for _, seat := range s.Seats {
		if seat.VolunteerID == volunteerID {
			return true
		}
	}
	return false
}

// AlternateOnly reports whether every seat filled by the run is an alternate-time match.
// Returns false when the run filled nothing.
func (s *Slot) AlternateOnly() bool {
	generated := 0
	for _, seat := range s.Seats {
		if seat.Pinned || seat.VolunteerID == "" {
			continue
		}
		generated++
		if seat.Match != eligibility.AlternateMatch {
			return false
		}
	}
	return generated > 0
}

// StartsAt returns the instant the slot begins in the roster location
func (rs *RosterState) StartsAt(slot *Slot) time.Time {
	return slot.Slot.StartsAt(rs.Location)
}
