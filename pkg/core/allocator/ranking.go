package allocator

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jakechorley/parish-roster/pkg/core/eligibility"
)

// RankSlots returns the slots in processing order.
//
// Scarcer slots go first so they are not starved by the pool being spent elsewhere.
//
// Ordering:
//  1. Scarcity descending: MinStaff / eligible candidates (a slot with no eligible
//     candidates counts as if it had one)
//  2. MinStaff descending
//  3. Calendar order (date, time, ID)
//
// Examples:
//   - Feast 19:30, MinStaff 20, 12 eligible → 1.67
//   - Sunday 10:00, MinStaff 20, 40 eligible → 0.5
//   - Weekday 06:30, MinStaff 5, 5 eligible → 1.0
func RankSlots(state *RosterState) []*Slot {
	ranked := slices.Clone(state.Slots)
	scarcity := make(map[int]float64, len(ranked))
	for _, slot := range ranked {
		scarcity[slot.Index] = slotScarcity(state, slot)
	}

	slices.SortStableFunc(ranked, func(a, b *Slot) int {
		if c := cmp.Compare(scarcity[b.Index], scarcity[a.Index]); c != 0 {
			return c
		}
		if c := cmp.Compare(b.MinStaff, a.MinStaff); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	return ranked
}

func slotScarcity(state *RosterState, slot *Slot) float64 {
	eligibleCount := max(state.Eligibility.EligibleCount(slot.ID), 1)
	return float64(slot.MinStaff) / float64(eligibleCount)
}

// EligibleCandidates returns the candidates the matrix admits for the slot that do not
// already hold a seat in it, sorted by ID
func EligibleCandidates(state *RosterState, slot *Slot) []*Candidate {
	var eligible []*Candidate
	for id, candidate := range state.Candidates {
		if state.matchFor(id, slot) == eligibility.NoMatch {
			continue
		}
		if slot.HasVolunteer(id) {
			continue
		}
		eligible = append(eligible, candidate)
	}
	slices.SortFunc(eligible, func(a, b *Candidate) int {
		return strings.Compare(a.ID, b.ID)
	})
	return eligible
}

// RankCandidates orders candidates for a slot.
//
// Ordering:
//  1. Preferred-time matches before alternate-time matches
//  2. Effective last service ascending: never served first, then whoever served longest ago
//  3. Seats already held in this run ascending
//  4. Volunteer ID ascending
func RankCandidates(state *RosterState, slot *Slot, candidates []*Candidate) {
	slices.SortStableFunc(candidates, func(a, b *Candidate) int {
		matchA, matchB := state.matchFor(a.ID, slot), state.matchFor(b.ID, slot)
		if matchA != matchB {
			// Higher match value is the better fit
			return cmp.Compare(matchB, matchA)
		}
		if c := compareLastService(a, b); c != 0 {
			return c
		}
		if c := cmp.Compare(len(a.AssignedSlotIndices), len(b.AssignedSlotIndices)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// compareLastService orders nil (never served) first, then older services first
func compareLastService(a, b *Candidate) int {
	switch {
	case a.EffectiveLastService == nil && b.EffectiveLastService == nil:
		return 0
	case a.EffectiveLastService == nil:
		return -1
	case b.EffectiveLastService == nil:
		return 1
	default:
		return a.EffectiveLastService.Compare(*b.EffectiveLastService)
	}
}
