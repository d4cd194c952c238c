package allocator

import "slices"

// pullSpouseForward moves the placed candidate's spouse to the head of the remaining
// ranked list when the spouse sits within PairingTolerance places of it.
//
// Pairing is a soft preference: a spouse further down the ranking than the tolerance
// allows is left where fairness put them. Couples where either asked to serve apart are
// never pulled together.
//
// Examples (tolerance 2):
//   - remaining [B, spouse, C] → [spouse, B, C]
//   - remaining [B, C, spouse] → [spouse, B, C]
//   - remaining [B, C, D, spouse] → unchanged
func pullSpouseForward(state *RosterState, placed *Candidate, remaining []*Candidate) []*Candidate {
	if state.PairingTolerance <= 0 || placed.SpouseID == "" {
		return remaining
	}
	if state.Eligibility.ServesApart(placed.ID) || state.Eligibility.ServesApart(placed.SpouseID) {
		return remaining
	}

	idx := slices.IndexFunc(remaining, func(c *Candidate) bool {
		return c.ID == placed.SpouseID
	})
	if idx <= 0 || idx > state.PairingTolerance {
		return remaining
	}

	spouse := remaining[idx]
	reordered := make([]*Candidate, 0, len(remaining))
	reordered = append(reordered, spouse)
	reordered = append(reordered, remaining[:idx]...)
	reordered = append(reordered, remaining[idx+1:]...)
	return reordered
}

// countPairs returns the number of spouse pairs both seated in the slot
func countPairs(state *RosterState, slot *Slot) int {
	seated := make(map[string]bool)
	for _, seat := range slot.Seats {
		if seat.VolunteerID != "" {
			seated[seat.VolunteerID] = true
		}
	}

	pairs := 0
	for id := range seated {
		candidate, ok := state.Candidates[id]
		if !ok || candidate.SpouseID == "" {
			continue
		}
		// Count each pair once, from the lower ID
		if seated[candidate.SpouseID] && id < candidate.SpouseID {
			pairs++
		}
	}
	return pairs
}
