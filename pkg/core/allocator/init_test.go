package allocator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/parish-roster/pkg/core/model"
)

func TestInitAllocation_OrdersSlotsAndBuildsSeats(t *testing.T) {
	later := sundaySlot("2025-10-05", "19:00", 1, 3)
	earlier := sundaySlot("2025-10-05", "08:00", 1, 2)

	allocator, err := InitAllocation(testConfig([]model.Slot{later, earlier}, ministers("v1"), records{}))
	require.NoError(t, err)

	require.Len(t, allocator.state.Slots, 2)
	assert.Equal(t, earlier.ID, allocator.state.Slots[0].ID)
	assert.Equal(t, 0, allocator.state.Slots[0].Index)
	assert.Equal(t, later.ID, allocator.state.Slots[1].ID)
	assert.Equal(t, 1, allocator.state.Slots[1].Index)

	seats := allocator.state.Slots[1].Seats
	require.Len(t, seats, 3)
	for i, seat := range seats {
		assert.Equal(t, i+1, seat.Position)
		assert.True(t, seat.IsOpen())
	}
	assert.Equal(t, time.UTC, allocator.state.Location)
}

func TestInitAllocation_SeedsLastServiceFromHistory(t *testing.T) {
	config := testConfig(nil, ministers("v1", "v2"), records{})
	config.LastService = map[string]time.Time{"v1": date("2025-09-14")}

	allocator, err := InitAllocation(config)
	require.NoError(t, err)

	require.NotNil(t, allocator.state.Candidates["v1"].EffectiveLastService)
	assert.Equal(t, date("2025-09-14"), *allocator.state.Candidates["v1"].EffectiveLastService)
	assert.Nil(t, allocator.state.Candidates["v2"].EffectiveLastService)
}

func TestInitAllocation_RejectsInvalidConfig(t *testing.T) {
	slot := sundaySlot("2025-10-05", "10:00", 1, 2)
	base := func() AllocationConfig {
		return testConfig([]model.Slot{slot}, ministers("v1"), records{})
	}

	config := base()
	config.Eligibility = nil
	_, err := InitAllocation(config)
	assert.ErrorContains(t, err, "eligibility matrix is required")

	config = base()
	config.PairingTolerance = -1
	_, err = InitAllocation(config)
	assert.ErrorContains(t, err, "pairing tolerance")

	config = base()
	config.AlternateOnlyPenalty = 1.5
	_, err = InitAllocation(config)
	assert.ErrorContains(t, err, "alternate-only penalty")

	config = base()
	config.LowConfidenceThreshold = -0.1
	_, err = InitAllocation(config)
	assert.ErrorContains(t, err, "low confidence threshold")

	config = base()
	config.Slots = []model.Slot{slot, slot}
	_, err = InitAllocation(config)
	assert.ErrorContains(t, err, "duplicate slot ID")

	config = base()
	broken := slot
	broken.MinStaff = 5
	config.Slots = []model.Slot{broken}
	_, err = InitAllocation(config)
	assert.ErrorContains(t, err, "invalid staffing")

	config = base()
	config.Volunteers = append(ministers("v1"), ministers("v1")...)
	_, err = InitAllocation(config)
	assert.ErrorContains(t, err, "duplicate volunteer ID")
}
