package eligibility

import (
	"github.com/jakechorley/parish-roster/pkg/core/availability"
	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// Match describes how a volunteer fits a slot
type Match int

const (
	// NoMatch means the volunteer must not be placed in the slot
	NoMatch Match = iota

	// AlternateMatch means the volunteer is available at this time but did not prefer it
	AlternateMatch

	// PreferredMatch means the volunteer explicitly chose this slot or time
	PreferredMatch
)

func (m Match) String() string {
	switch m {
	case PreferredMatch:
		return "preferred"
	case AlternateMatch:
		return "alternate"
	default:
		return "none"
	}
}

// Filter decides whether a volunteer may be placed in a slot.
//
// The policy is default-closed: whenever the relevant answer is missing the
// volunteer is not eligible.
type Filter struct {
	servingRoles map[model.Role]bool
}

// NewFilter creates a filter that only admits the given roles.
// With no roles given, only ministers serve.
func NewFilter(servingRoles []model.Role) *Filter {
	if len(servingRoles) == 0 {
		servingRoles = []model.Role{model.RoleMinister}
	}
	roles := make(map[model.Role]bool, len(servingRoles))
	for _, r := range servingRoles {
		roles[r] = true
	}
	return &Filter{servingRoles: roles}
}

// CanServe reports whether the volunteer's status and role allow serving at all
func (f *Filter) CanServe(v model.Volunteer) bool {
	return v.Status == model.StatusActive && f.servingRoles[v.Role]
}

// IsEligible reports whether the volunteer may be placed in the slot
func (f *Filter) IsEligible(v model.Volunteer, slot model.Slot, a *availability.Availability) bool {
	return f.Match(v, slot, a) != NoMatch
}

// Match classifies the volunteer against the slot.
//
// Returns:
//   - NoMatch for inactive or non-serving volunteers, missing availability, sentinels
//     and any absent key
//   - PreferredMatch / AlternateMatch for Sunday slots depending on the preferred times
//   - PreferredMatch for weekday and special slots the volunteer marked true
func (f *Filter) Match(v model.Volunteer, slot model.Slot, a *availability.Availability) Match {
	if !f.CanServe(v) || a == nil {
		return NoMatch
	}

	switch slot.Type {
	case model.SlotSundayMass:
		available, preferred := a.SundayTime(slot.DateKey(), slot.Time)
		if !available {
			return NoMatch
		}
		if preferred {
			return PreferredMatch
		}
		return AlternateMatch

	case model.SlotWeekdayMass:
		if a.Weekday(slot.Date.Weekday()) {
			return PreferredMatch
		}
		return NoMatch

	case model.SlotSpecialEvent, model.SlotFeast:
		if a.Event(slot.EventKey) {
			return PreferredMatch
		}
		return NoMatch

	default:
		return NoMatch
	}
}
