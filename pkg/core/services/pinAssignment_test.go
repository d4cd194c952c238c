package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/parish-roster/pkg/core/model"
	"github.com/jakechorley/parish-roster/pkg/db"
)

var firstSunday = time.Date(2025, time.November, 2, 0, 0, 0, 0, time.UTC)

func TestPinAssignment_InsertsManualRecord(t *testing.T) {
	store := novemberStore()

	result, err := PinAssignment(context.Background(), store, nil, testConfig(), zap.NewNop(),
		PinRequest{Date: firstSunday, Time: "10:00", Position: 2, VolunteerID: "v3"})
	require.NoError(t, err)

	assert.Equal(t, model.AssignmentPinned, result.Assignment.Status)
	assert.Equal(t, model.ProvenanceManual, result.Assignment.Provenance)
	assert.Equal(t, "2025-11-02_10:00_sunday_mass", result.Assignment.SlotID)
	assert.Empty(t, result.Replaced)

	require.Len(t, store.assignments, 1)
	record := store.assignments[0]
	assert.Equal(t, result.Assignment.ID, record.ID)
	assert.Equal(t, "v3", record.VolunteerID)
	assert.Equal(t, 2, record.Position)
	assert.Equal(t, 2025, record.Year)
	assert.Equal(t, 11, record.Month)
}

func TestPinAssignment_ReplacesExistingRecord(t *testing.T) {
	store := novemberStore()
	store.assignments = []db.Assignment{{
		ID:          "gen-1",
		Year:        2025,
		Month:       11,
		SlotID:      "2025-11-02_08:00_sunday_mass",
		Date:        firstSunday,
		Time:        "08:00",
		Position:    1,
		VolunteerID: "v1",
		Status:      "scheduled",
		Provenance:  "generated",
	}}

	result, err := PinAssignment(context.Background(), store, nil, testConfig(), zap.NewNop(),
		PinRequest{Date: firstSunday, Time: "08:00", Position: 1, VolunteerID: "v2"})
	require.NoError(t, err)

	require.Len(t, result.Replaced, 1)
	assert.Equal(t, "gen-1", result.Replaced[0].ID)
	assert.Equal(t, []string{"gen-1"}, store.tx.superseded)

	active := store.activeAssignments()
	require.Len(t, active, 1)
	assert.Equal(t, "v2", active[0].VolunteerID)
	assert.Equal(t, "pinned", active[0].Status)
}

func TestPinAssignment_PinnedSurvivesCommit(t *testing.T) {
	store := novemberStore()

	pinned, err := PinAssignment(context.Background(), store, nil, testConfig(), zap.NewNop(),
		PinRequest{Date: firstSunday, Time: "08:00", Position: 1, VolunteerID: "v4"})
	require.NoError(t, err)

	_, err = GenerateRoster(context.Background(), store, nil, nil, testConfig(), zap.NewNop(), 2025, 11, ModeCommit)
	require.NoError(t, err)

	var found bool
	for _, a := range store.activeAssignments() {
		if a.ID == pinned.Assignment.ID {
			found = true
			assert.Equal(t, "v4", a.VolunteerID)
		}
	}
	assert.True(t, found, "pinned record should stay active")
}

func TestPinAssignment_EmptyVolunteerPinsVacancy(t *testing.T) {
	store := novemberStore()

	result, err := PinAssignment(context.Background(), store, nil, testConfig(), zap.NewNop(),
		PinRequest{Date: firstSunday, Time: "19:00", Position: 1})
	require.NoError(t, err)

	assert.Equal(t, model.AssignmentVacant, result.Assignment.Status)
	assert.True(t, result.Assignment.IsPinned())
	assert.True(t, result.Assignment.IsVacancy())
}

func TestPinAssignment_SlotNotFound(t *testing.T) {
	store := novemberStore()

	_, err := PinAssignment(context.Background(), store, nil, testConfig(), zap.NewNop(),
		PinRequest{Date: firstSunday, Time: "11:00", Position: 1, VolunteerID: "v1"})

	assert.ErrorIs(t, err, ErrSlotNotFound)
	assert.Zero(t, store.locks)
}

func TestPinAssignment_InvalidPosition(t *testing.T) {
	store := novemberStore()

	for _, position := range []int{0, -1, 1000} {
		_, err := PinAssignment(context.Background(), store, nil, testConfig(), zap.NewNop(),
			PinRequest{Date: firstSunday, Time: "08:00", Position: position, VolunteerID: "v1"})
		assert.ErrorIs(t, err, ErrInvalidPosition, "position %d", position)
	}
	assert.Zero(t, store.locks)
}

func TestPinAssignment_UnknownVolunteer(t *testing.T) {
	store := novemberStore()

	_, err := PinAssignment(context.Background(), store, nil, testConfig(), zap.NewNop(),
		PinRequest{Date: firstSunday, Time: "08:00", Position: 1, VolunteerID: "ghost"})

	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Zero(t, store.locks)
}
