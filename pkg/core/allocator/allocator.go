package allocator

import (
	"slices"
	"time"

	"github.com/jakechorley/parish-roster/pkg/core/eligibility"
	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// Allocator manages the roster generation process with configurable criteria
type Allocator struct {
	criteria []Criterion
	state    *RosterState
	config   AllocationConfig
}

// AllocationConfig contains the configuration for creating a new Allocator
type AllocationConfig struct {
	// Criteria to apply during allocation
	Criteria []Criterion

	// Slots is the catalog for the period
	Slots []model.Slot

	// Volunteers is the list of all volunteers
	Volunteers []model.Volunteer

	// Eligibility is the match matrix computed from normalized availability
	Eligibility *eligibility.Matrix

	// LastService maps volunteer ID to their last service before this run
	// Volunteers missing from the map have never served
	LastService map[string]time.Time

	// Pinned are existing assignments whose seats must be preserved
	// Only entries reporting IsPinned are used
	Pinned []model.Assignment

	// Location turns slot dates into service instants (UTC when nil)
	Location *time.Location

	// PairingTolerance is how many rank places a spouse may be pulled forward (0 disables pairing)
	PairingTolerance int

	// AlternateOnlyPenalty multiplies the confidence of slots the run only filled with
	// alternate-time matches
	AlternateOnlyPenalty float64

	// LowConfidenceThreshold flags slots whose confidence falls below it
	LowConfidenceThreshold float64

	// Draft marks every slot low-confidence because responses are still being collected
	Draft bool
}

// AllocationOutcome represents the result of a roster generation
type AllocationOutcome struct {
	// State is the final roster state after allocation
	State *RosterState

	// Assignments generated by this run, including explicit vacancies, ordered by
	// date, time and position. Pinned seats are not repeated here
	Assignments []model.Assignment

	// Slots holds one outcome per slot in calendar order
	Slots []SlotOutcome

	Quality QualityMetrics

	// LastService maps volunteer ID to the latest service known after this run
	LastService map[string]time.Time

	// IgnoredPins are pinned assignments that did not match a seat
	IgnoredPins []IgnoredPin

	// ValidationErrors contains any validation errors found in the final state
	ValidationErrors []SlotValidationError

	// Success indicates no validation errors were found
	Success bool
}

// Allocate runs the main allocation loop to generate the roster
func Allocate(config AllocationConfig) (*AllocationOutcome, error) {

	// Initialise allocator
	allocator, err := InitAllocation(config)
	if err != nil {
		return nil, err
	}

	// Reserve pinned seats before the main allocation loop
	ignored := allocator.ApplyPinned(config.Pinned)

	// Main allocation loop, scarcest slots first
	for _, slot := range RankSlots(allocator.state) {
		allocator.fillSlot(slot)
	}

	// Build outcome report
	return allocator.buildOutcome(ignored), nil
}

// fillSlot seats ranked candidates in the open seats, lowest position first, until the
// slot is full or the eligible pool is exhausted
func (a *Allocator) fillSlot(slot *Slot) {
	remaining := EligibleCandidates(a.state, slot)
	RankCandidates(a.state, slot, remaining)
	ranked := slices.Clone(remaining)

	for _, seat := range slot.OpenSeats() {
		var placed *Candidate
		for len(remaining) > 0 {
			next := remaining[0]
			remaining = remaining[1:]
			if IsCandidateValid(a.state, next, slot, a.criteria) {
				placed = next
				break
			}
		}

		// Pool exhausted
		if placed == nil {
			break
		}

		seat.VolunteerID = placed.ID
		seat.Match = a.state.matchFor(placed.ID, slot)
		placed.recordService(slot.Index, a.state.StartsAt(slot))

		remaining = pullSpouseForward(a.state, placed, remaining)
	}

	slot.Backups = a.backups(slot, ranked)
}

// backups lists unseated candidates willing to substitute, in ranked order, at most MaxStaff
func (a *Allocator) backups(slot *Slot, ranked []*Candidate) []string {
	backups := []string{}
	for _, candidate := range ranked {
		if len(backups) >= slot.MaxStaff {
			break
		}
		if slot.HasVolunteer(candidate.ID) {
			continue
		}
		if a.state.Eligibility.CanSubstitute(candidate.ID) {
			backups = append(backups, candidate.ID)
		}
	}
	return backups
}

// buildOutcome creates the final allocation outcome report
func (a *Allocator) buildOutcome(ignored []IgnoredPin) *AllocationOutcome {
	// Initialize with empty slices (not nil) for easier consumption
	outcome := &AllocationOutcome{
		State:            a.state,
		Assignments:      []model.Assignment{},
		Slots:            []SlotOutcome{},
		LastService:      make(map[string]time.Time),
		IgnoredPins:      ignored,
		ValidationErrors: []SlotValidationError{},
	}

	for _, slot := range a.state.Slots {
		outcome.Slots = append(outcome.Slots, a.slotOutcome(slot))
		outcome.Assignments = append(outcome.Assignments, generatedAssignments(slot)...)
	}

	for id, candidate := range a.state.Candidates {
		if candidate.EffectiveLastService != nil {
			outcome.LastService[id] = *candidate.EffectiveLastService
		}
	}

	outcome.Quality = computeQuality(a.state, outcome.Slots)

	// Run validation
	outcome.ValidationErrors = append(outcome.ValidationErrors, ValidateRosterState(a.state, a.criteria)...)

	outcome.Success = len(outcome.ValidationErrors) == 0

	return outcome
}

// generatedAssignments converts the run's seats of a slot into assignments.
// Open seats within the required staffing become explicit vacancies.
func generatedAssignments(slot *Slot) []model.Assignment {
	var assignments []model.Assignment
	for _, seat := range slot.Seats {
		if seat.Pinned {
			continue
		}

		assignment := model.Assignment{
			SlotID:      slot.ID,
			Date:        slot.Date,
			Time:        slot.Time,
			Position:    seat.Position,
			VolunteerID: seat.VolunteerID,
			Status:      model.AssignmentScheduled,
			Provenance:  model.ProvenanceGenerated,
		}

		if seat.VolunteerID == "" {
			if seat.Position > slot.MinStaff {
				continue
			}
			assignment.Status = model.AssignmentVacant
		}

		assignments = append(assignments, assignment)
	}
	return assignments
}
