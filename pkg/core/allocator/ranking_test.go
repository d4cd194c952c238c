package allocator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/parish-roster/pkg/core/model"
)

func slotIDs(slots []*Slot) []string {
	ids := make([]string, len(slots))
	for i, s := range slots {
		ids[i] = s.ID
	}
	return ids
}

func candidateIDs(candidates []*Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return ids
}

func TestRankSlots_ScarcestFirst(t *testing.T) {
	// 1 eligible for 1 seat (1.0), 4 eligible for 2 seats (0.5), 2 eligible for 4 seats (2.0)
	plenty := sundaySlot("2025-10-05", "08:00", 2, 4)
	tight := sundaySlot("2025-10-05", "10:00", 1, 2)
	scarce := feastSlot("2025-10-28", "19:30", 4, 5)

	avail := records{}
	avail.sunday("v1", tight, true)
	for _, id := range []string{"v1", "v2", "v3", "v4"} {
		avail.sunday(id, plenty, true)
	}
	avail.event("v1", scarce)
	avail.event("v2", scarce)

	allocator, err := InitAllocation(testConfig([]model.Slot{plenty, tight, scarce}, ministers("v1", "v2", "v3", "v4"), avail))
	require.NoError(t, err)

	assert.Equal(t, []string{scarce.ID, tight.ID, plenty.ID}, slotIDs(RankSlots(allocator.state)))
}

func TestRankSlots_TiesBrokenByMinStaffThenCalendar(t *testing.T) {
	// No eligible candidates anywhere: scarcity equals MinStaff
	first := sundaySlot("2025-10-05", "08:00", 2, 4)
	second := sundaySlot("2025-10-05", "10:00", 2, 4)
	bigger := sundaySlot("2025-10-12", "10:00", 2, 4)
	bigger.MinStaff = 3

	allocator, err := InitAllocation(testConfig([]model.Slot{second, bigger, first}, ministers("v1"), records{}))
	require.NoError(t, err)

	assert.Equal(t, []string{bigger.ID, first.ID, second.ID}, slotIDs(RankSlots(allocator.state)))
}

func TestRankCandidates(t *testing.T) {
	slot := sundaySlot("2025-10-05", "10:00", 1, 5)
	avail := records{}
	avail.sunday("alt-never", slot, false)
	avail.sunday("pref-old", slot, true)
	avail.sunday("pref-recent", slot, true)
	avail.sunday("pref-never-b", slot, true)
	avail.sunday("pref-never-a", slot, true)

	config := testConfig([]model.Slot{slot}, ministers("alt-never", "pref-old", "pref-recent", "pref-never-b", "pref-never-a", "ineligible"), avail)
	config.LastService = map[string]time.Time{
		"pref-old":    date("2025-06-01"),
		"pref-recent": date("2025-09-28"),
	}

	allocator, err := InitAllocation(config)
	require.NoError(t, err)
	state := allocator.state

	candidates := EligibleCandidates(state, state.Slots[0])
	RankCandidates(state, state.Slots[0], candidates)

	assert.Equal(t, []string{"pref-never-a", "pref-never-b", "pref-old", "pref-recent", "alt-never"}, candidateIDs(candidates))
}

func TestRankCandidates_LighterLoadBreaksLastServiceTie(t *testing.T) {
	slot := sundaySlot("2025-10-26", "10:00", 1, 3)
	avail := records{}
	for _, id := range []string{"v1", "v2", "v3"} {
		avail.sunday(id, slot, true)
	}

	allocator, err := InitAllocation(testConfig([]model.Slot{slot}, ministers("v1", "v2", "v3"), avail))
	require.NoError(t, err)
	state := allocator.state

	// v1 and v2 last served at the same mass, v1 also earlier in the month
	served := date("2025-10-19")
	state.Candidates["v1"].recordService(7, date("2025-10-05"))
	state.Candidates["v1"].recordService(8, served)
	state.Candidates["v2"].recordService(8, served)

	candidates := EligibleCandidates(state, state.Slots[0])
	RankCandidates(state, state.Slots[0], candidates)

	assert.Equal(t, []string{"v3", "v2", "v1"}, candidateIDs(candidates))
}

func TestEligibleCandidates_ExcludesSeatedVolunteers(t *testing.T) {
	slot := sundaySlot("2025-10-05", "10:00", 1, 2)
	avail := records{}
	avail.sunday("v1", slot, true)
	avail.sunday("v2", slot, true)

	allocator, err := InitAllocation(testConfig([]model.Slot{slot}, ministers("v1", "v2"), avail))
	require.NoError(t, err)
	allocator.state.Slots[0].Seats[0].VolunteerID = "v1"

	assert.Equal(t, []string{"v2"}, candidateIDs(EligibleCandidates(allocator.state, allocator.state.Slots[0])))
}

func TestPullSpouseForward(t *testing.T) {
	state := &RosterState{PairingTolerance: 2}
	placed := &Candidate{Volunteer: model.Volunteer{ID: "a", SpouseID: "s"}}
	b := &Candidate{Volunteer: model.Volunteer{ID: "b"}}
	c := &Candidate{Volunteer: model.Volunteer{ID: "c"}}
	d := &Candidate{Volunteer: model.Volunteer{ID: "d"}}
	spouse := &Candidate{Volunteer: model.Volunteer{ID: "s", SpouseID: "a"}}

	assert.Equal(t, []string{"s", "b", "c"}, candidateIDs(pullSpouseForward(state, placed, []*Candidate{b, spouse, c})))
	assert.Equal(t, []string{"s", "b", "c"}, candidateIDs(pullSpouseForward(state, placed, []*Candidate{b, c, spouse})))
	assert.Equal(t, []string{"b", "c", "d", "s"}, candidateIDs(pullSpouseForward(state, placed, []*Candidate{b, c, d, spouse})))
	assert.Equal(t, []string{"s", "b"}, candidateIDs(pullSpouseForward(state, placed, []*Candidate{spouse, b})))

	state.PairingTolerance = 0
	assert.Equal(t, []string{"b", "s"}, candidateIDs(pullSpouseForward(state, placed, []*Candidate{b, spouse})))
}
