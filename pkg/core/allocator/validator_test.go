package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/parish-roster/pkg/core/eligibility"
	"github.com/jakechorley/parish-roster/pkg/core/model"
)

func TestValidateCoreInvariants_DuplicateSeat(t *testing.T) {
	slot := sundaySlot("2025-10-05", "10:00", 1, 2)
	avail := records{}
	avail.sunday("v1", slot, true)

	allocator, err := InitAllocation(testConfig([]model.Slot{slot}, ministers("v1"), avail))
	require.NoError(t, err)
	allocator.state.Slots[0].Seats[0].VolunteerID = "v1"
	allocator.state.Slots[0].Seats[1].VolunteerID = "v1"

	errors := validateCoreInvariants(allocator.state)
	require.Len(t, errors, 1)
	assert.Equal(t, "CoreInvariant", errors[0].CriterionName)
	assert.Contains(t, errors[0].Description, "v1 holds more than one seat")
}

func TestValidateCoreInvariants_IneligibleGeneratedSeat(t *testing.T) {
	slot := sundaySlot("2025-10-05", "10:00", 1, 2)

	allocator, err := InitAllocation(testConfig([]model.Slot{slot}, ministers("v1", "v2"), records{}))
	require.NoError(t, err)
	allocator.state.Slots[0].Seats[0].VolunteerID = "v1"
	// Pinned seats bypass eligibility
	allocator.state.Slots[0].Seats[1].VolunteerID = "v2"
	allocator.state.Slots[0].Seats[1].Pinned = true

	errors := validateCoreInvariants(allocator.state)
	require.Len(t, errors, 1)
	assert.Contains(t, errors[0].Description, "v1 is not eligible for position 1")
}

func TestValidateCoreInvariants_OverCapacity(t *testing.T) {
	state := &RosterState{
		Eligibility: eligibility.BuildMatrix(eligibility.NewFilter(nil), nil, nil, nil),
		Slots: []*Slot{{
			Slot: model.Slot{ID: "s", MinStaff: 1, MaxStaff: 1},
			Seats: []*Seat{
				{Position: 1, VolunteerID: "v1", Pinned: true},
				{Position: 2, VolunteerID: "v2", Pinned: true},
			},
		}},
	}

	errors := validateCoreInvariants(state)
	require.Len(t, errors, 1)
	assert.Contains(t, errors[0].Description, "holds 2 volunteers but maxStaff is 1")
}

func TestIsCandidateValid(t *testing.T) {
	slot := sundaySlot("2025-10-05", "10:00", 1, 2)
	avail := records{}
	avail.sunday("v1", slot, true)
	avail.sunday("v2", slot, true)

	allocator, err := InitAllocation(testConfig([]model.Slot{slot}, ministers("v1", "v2", "v3"), avail))
	require.NoError(t, err)
	state := allocator.state
	s := state.Slots[0]

	assert.True(t, IsCandidateValid(state, state.Candidates["v1"], s, nil))
	assert.False(t, IsCandidateValid(state, state.Candidates["v3"], s, nil), "not eligible")

	s.Seats[0].VolunteerID = "v1"
	assert.False(t, IsCandidateValid(state, state.Candidates["v1"], s, nil), "already seated")

	veto := &mockCriterion{name: "veto", reject: map[string]bool{"v2": true}}
	assert.False(t, IsCandidateValid(state, state.Candidates["v2"], s, []Criterion{veto}))
}
