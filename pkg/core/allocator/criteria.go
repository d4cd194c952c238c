package allocator

// SlotValidationError represents a validation problem found for a specific slot
type SlotValidationError struct {
	SlotIndex     int
	SlotID        string
	CriterionName string
	Description   string
}

// Criterion defines the interface for allocation constraints
type Criterion interface {
	// Name returns a human-readable identifier for this criterion
	Name() string

	// IsCandidateValid determines if the candidate may be seated in the slot
	// Returns false if seating the candidate would violate a hard constraint
	// This acts as a veto - if ANY criterion returns false, the candidate is skipped for the slot
	IsCandidateValid(state *RosterState, candidate *Candidate, slot *Slot) bool

	// ValidateRosterState checks if the final roster state meets this criterion's requirements
	// Returns a slice of validation errors (empty if all valid)
	// This is called after allocation completes. Errors are reported, never fatal
	ValidateRosterState(state *RosterState) []SlotValidationError
}
