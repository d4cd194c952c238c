package allocator

// SlotOutcome summarises how one slot was staffed
type SlotOutcome struct {
	SlotID   string
	MinStaff int
	MaxStaff int

	// Filled counts seats holding a volunteer (pinned and generated)
	Filled int

	// Pinned counts seats reserved by pinned assignments, including pinned vacancies
	Pinned int

	// Vacancies counts empty seats within the required staffing (positions 1..MinStaff)
	Vacancies int

	// EligibleCount is the number of volunteers the eligibility matrix admits
	EligibleCount int

	// Confidence is filled/required staffing in [0, 1], discounted when the run only
	// found alternate-time matches
	Confidence float64

	AlternateOnly bool
	LowConfidence bool

	// Backups are substitutes suggested for the slot, in ranked order
	Backups []string

	PairsPlaced int
}

// QualityMetrics aggregates slot outcomes for a run
type QualityMetrics struct {
	TotalSlots         int
	TotalAssignments   int
	Vacancies          int
	UniqueVolunteers   int
	AverageFillRate    float64
	LowConfidenceSlots int
	PairsPlaced        int
}

// slotConfidence calculates the confidence score for a slot.
//
// Required staffing is MinStaff. A slot without a minimum is fully confident.
//
// Examples (penalty 0.8):
//   - MinStaff 20, filled 12 → 0.6
//   - MinStaff 5, filled 8 → 1.0 (capped)
//   - MinStaff 10, filled 10, all alternate-time → 0.8
func slotConfidence(slot *Slot, alternateOnlyPenalty float64) float64 {
	confidence := 1.0
	if slot.MinStaff > 0 {
		confidence = min(1.0, float64(slot.FilledCount())/float64(slot.MinStaff))
	}
	if slot.AlternateOnly() {
		confidence *= alternateOnlyPenalty
	}
	return confidence
}

// fillRate is filled/required capped at 1
func fillRate(outcome SlotOutcome) float64 {
	if outcome.MinStaff == 0 {
		return 1.0
	}
	return min(1.0, float64(outcome.Filled)/float64(outcome.MinStaff))
}

func (a *Allocator) slotOutcome(slot *Slot) SlotOutcome {
	outcome := SlotOutcome{
		SlotID:        slot.ID,
		MinStaff:      slot.MinStaff,
		MaxStaff:      slot.MaxStaff,
		Filled:        slot.FilledCount(),
		EligibleCount: a.state.Eligibility.EligibleCount(slot.ID),
		Confidence:    slotConfidence(slot, a.config.AlternateOnlyPenalty),
		AlternateOnly: slot.AlternateOnly(),
		Backups:       slot.Backups,
		PairsPlaced:   countPairs(a.state, slot),
	}
	if outcome.Backups == nil {
		outcome.Backups = []string{}
	}

	for _, seat := range slot.Seats {
		if seat.Pinned {
			outcome.Pinned++
		}
		if seat.VolunteerID == "" && seat.Position <= slot.MinStaff {
			outcome.Vacancies++
		}
	}

	outcome.LowConfidence = outcome.Filled < slot.MinStaff ||
		outcome.Confidence < a.config.LowConfidenceThreshold ||
		a.config.Draft

	return outcome
}

func computeQuality(state *RosterState, outcomes []SlotOutcome) QualityMetrics {
	quality := QualityMetrics{TotalSlots: len(outcomes)}

	totalRate := 0.0
	for _, outcome := range outcomes {
		quality.TotalAssignments += outcome.Filled
		quality.Vacancies += outcome.Vacancies
		quality.PairsPlaced += outcome.PairsPlaced
		if outcome.LowConfidence {
			quality.LowConfidenceSlots++
		}
		totalRate += fillRate(outcome)
	}
	if len(outcomes) > 0 {
		quality.AverageFillRate = totalRate / float64(len(outcomes))
	}

	unique := make(map[string]bool)
	for _, slot := range state.Slots {
		for _, seat := range slot.Seats {
			if seat.VolunteerID != "" {
				unique[seat.VolunteerID] = true
			}
		}
	}
	quality.UniqueVolunteers = len(unique)

	return quality
}
