package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/parish-roster/pkg/core/model"
)

const seedYAML = `
volunteers:
  - id: v1
    displayName: Ana
    role: minister
    status: active
    spouseId: v2
  - id: v2
    displayName: Bruno
    role: coordinator
    status: active
    lastService: 2025-09-28T10:00:00Z
    spouseId: v1
periods:
  - year: 2025
    month: 11
  - year: 2025
    month: 10
    questionnaireStatus: closed
availability:
  - volunteerId: v1
    year: 2025
    month: 11
    submittedAt: 2025-10-20T12:00:00Z
    payload:
      format_version: "2.0"
      masses:
        "2025-11-02":
          "08:00": true
      preferred_times: ["08:00"]
  - id: legacy-1
    volunteerId: v2
    year: 2025
    month: 11
    submittedAt: 2025-10-21T09:30:00Z
    payloadJson: '[{"questionId": "daily_mass_availability", "answer": "Sim"}]'
`

func TestImportData_LoadsSeedFile(t *testing.T) {
	store := newMockStore()

	result, err := ImportData(context.Background(), store, nil, zap.NewNop(), []byte(seedYAML))
	require.NoError(t, err)

	assert.Equal(t, &ImportDataResult{Volunteers: 2, Periods: 2, Availability: 2}, result)

	require.Len(t, store.volunteers, 2)
	assert.Equal(t, "v2", store.volunteers[0].SpouseID)
	require.NotNil(t, store.volunteers[1].LastService)
	assert.Equal(t, "coordinator", store.volunteers[1].Role)

	assert.Equal(t, "draft", store.periods[periodKey(2025, 11)].QuestionnaireStatus)
	assert.Equal(t, "closed", store.periods[periodKey(2025, 10)].QuestionnaireStatus)

	require.Len(t, store.availability, 2)
	inline := store.availability[0]
	assert.NotEmpty(t, inline.ID)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(inline.Payload, &payload))
	assert.Equal(t, "2.0", payload["format_version"])
	assert.Equal(t, map[string]any{"2025-11-02": map[string]any{"08:00": true}}, payload["masses"])

	assert.Equal(t, "legacy-1", store.availability[1].ID)
	assert.JSONEq(t, `[{"questionId": "daily_mass_availability", "answer": "Sim"}]`, string(store.availability[1].Payload))
}

func TestImportData_IsIdempotent(t *testing.T) {
	store := newMockStore()

	_, err := ImportData(context.Background(), store, nil, zap.NewNop(), []byte(seedYAML))
	require.NoError(t, err)
	firstID := store.availability[0].ID

	_, err = ImportData(context.Background(), store, nil, zap.NewNop(), []byte(seedYAML))
	require.NoError(t, err)

	assert.Len(t, store.volunteers, 2)
	assert.Len(t, store.availability, 2)
	assert.Equal(t, firstID, store.availability[0].ID, "derived IDs are stable")
}

func TestImportData_FlushesPreviews(t *testing.T) {
	store := novemberStore()
	previews := NewPreviewCache(time.Minute)

	before, err := GenerateRoster(context.Background(), store, previews, nil, testConfig(), zap.NewNop(), 2025, 11, ModePreview)
	require.NoError(t, err)

	_, err = ImportData(context.Background(), store, previews, zap.NewNop(), []byte(seedYAML))
	require.NoError(t, err)

	_, ok := previews.Get(model.Period{Year: 2025, Month: time.November})
	assert.False(t, ok)

	after, err := GenerateRoster(context.Background(), store, previews, nil, testConfig(), zap.NewNop(), 2025, 11, ModePreview)
	require.NoError(t, err)
	assert.NotEqual(t, before.RunID, after.RunID)
}

func TestImportData_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		seed string
		want string
	}{
		{
			name: "unknown role",
			seed: "volunteers:\n  - {id: v1, displayName: Ana, role: priest, status: active}\n",
			want: "seed validation failed",
		},
		{
			name: "month out of range",
			seed: "periods:\n  - {year: 2025, month: 13}\n",
			want: "seed validation failed",
		},
		{
			name: "missing payload",
			seed: "availability:\n  - {volunteerId: v1, year: 2025, month: 11, submittedAt: 2025-10-20T12:00:00Z}\n",
			want: "payload is missing",
		},
		{
			name: "both payloads",
			seed: "availability:\n  - {volunteerId: v1, year: 2025, month: 11, submittedAt: 2025-10-20T12:00:00Z, payload: {a: 1}, payloadJson: '{}'}\n",
			want: "mutually exclusive",
		},
		{
			name: "invalid json",
			seed: "availability:\n  - {volunteerId: v1, year: 2025, month: 11, submittedAt: 2025-10-20T12:00:00Z, payloadJson: '{'}\n",
			want: "not valid JSON",
		},
		{
			name: "not yaml",
			seed: "volunteers: [",
			want: "failed to parse seed file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()

			_, err := ImportData(context.Background(), store, nil, zap.NewNop(), []byte(tt.seed))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, store.volunteers)
			assert.Empty(t, store.periods)
			assert.Empty(t, store.availability)
		})
	}
}
