package allocator

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jakechorley/parish-roster/pkg/core/eligibility"
	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// Default engine tuning
const (
	DefaultPairingTolerance       = 2
	DefaultAlternateOnlyPenalty   = 0.8
	DefaultLowConfidenceThreshold = 0.75
)

// InitAllocation validates the config and builds the initial roster state.
//
// Slots are re-ordered by date, time and ID so that identical inputs always produce
// identical indices. Every volunteer becomes a candidate; eligibility is decided by the
// matrix, not by membership here.
func InitAllocation(config AllocationConfig) (*Allocator, error) {
	if config.Eligibility == nil {
		return nil, fmt.Errorf("eligibility matrix is required")
	}
	if config.PairingTolerance < 0 {
		return nil, fmt.Errorf("pairing tolerance must be >= 0, got %d", config.PairingTolerance)
	}
	if config.AlternateOnlyPenalty < 0 || config.AlternateOnlyPenalty > 1 {
		return nil, fmt.Errorf("alternate-only penalty must be within [0, 1], got %v", config.AlternateOnlyPenalty)
	}
	if config.LowConfidenceThreshold < 0 || config.LowConfidenceThreshold > 1 {
		return nil, fmt.Errorf("low confidence threshold must be within [0, 1], got %v", config.LowConfidenceThreshold)
	}

	location := config.Location
	if location == nil {
		location = time.UTC
	}

	slots, err := initSlots(config.Slots)
	if err != nil {
		return nil, err
	}

	candidates, err := initCandidates(config.Volunteers, config.LastService)
	if err != nil {
		return nil, err
	}

	state := &RosterState{
		Slots:            slots,
		Candidates:       candidates,
		Eligibility:      config.Eligibility,
		Location:         location,
		PairingTolerance: config.PairingTolerance,
	}

	return &Allocator{
		criteria: config.Criteria,
		state:    state,
		config:   config,
	}, nil
}

func initSlots(catalog []model.Slot) ([]*Slot, error) {
	ordered := slices.Clone(catalog)
	slices.SortStableFunc(ordered, compareCatalogOrder)

	slots := make([]*Slot, 0, len(ordered))
	seen := make(map[string]bool, len(ordered))
	for i, s := range ordered {
		if s.ID == "" {
			return nil, fmt.Errorf("slot on %s %s has no ID", s.DateKey(), s.Time)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate slot ID %s", s.ID)
		}
		seen[s.ID] = true

		if s.MaxStaff < 1 || s.MinStaff < 0 || s.MinStaff > s.MaxStaff {
			return nil, fmt.Errorf("slot %s has invalid staffing %d-%d", s.ID, s.MinStaff, s.MaxStaff)
		}

		seats := make([]*Seat, s.MaxStaff)
		for p := range seats {
			seats[p] = &Seat{Position: p + 1}
		}

		slots = append(slots, &Slot{
			Slot:  s,
			Index: i,
			Seats: seats,
		})
	}

	return slots, nil
}

func initCandidates(volunteers []model.Volunteer, lastService map[string]time.Time) (map[string]*Candidate, error) {
	candidates := make(map[string]*Candidate, len(volunteers))
	for _, v := range volunteers {
		if v.ID == "" {
			return nil, fmt.Errorf("volunteer %q has no ID", v.DisplayName)
		}
		if _, exists := candidates[v.ID]; exists {
			return nil, fmt.Errorf("duplicate volunteer ID %s", v.ID)
		}

		candidate := &Candidate{Volunteer: v}
		if served, ok := lastService[v.ID]; ok && !served.IsZero() {
			candidate.EffectiveLastService = &served
		}
		candidates[v.ID] = candidate
	}
	return candidates, nil
}

// compareCatalogOrder orders slots by date, then time, then ID
func compareCatalogOrder(a, b model.Slot) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	if c := strings.Compare(a.Time, b.Time); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// candidate returns the candidate for the ID, creating a bare one for volunteers that are
// only known through pinned assignments
func (a *Allocator) candidate(volunteerID string) *Candidate {
	c, ok := a.state.Candidates[volunteerID]
	if !ok {
		c = &Candidate{Volunteer: model.Volunteer{ID: volunteerID}}
		a.state.Candidates[volunteerID] = c
	}
	return c
}

// matchFor looks up the eligibility of a candidate for a slot
func (rs *RosterState) matchFor(candidateID string, slot *Slot) eligibility.Match {
	return rs.Eligibility.Match(candidateID, slot.ID)
}
