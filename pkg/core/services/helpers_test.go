package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jakechorley/parish-roster/internal/config"
	"github.com/jakechorley/parish-roster/pkg/db"
)

// mockStore is an in-memory store. Writes made through WithPeriodLock are applied to
// its assignments unless the callback fails.
type mockStore struct {
	mu sync.Mutex

	volunteers   []db.Volunteer
	periods      map[string]db.Period
	availability []db.AvailabilityRecord
	assignments  []db.Assignment

	getVolunteersErr error
	getPeriodErr     error
	txErr            error

	locks int
	tx    *mockTx
}

func newMockStore() *mockStore {
	return &mockStore{periods: make(map[string]db.Period)}
}

func periodKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

func (m *mockStore) withPeriod(year, month int, status string) *mockStore {
	m.periods[periodKey(year, month)] = db.Period{Year: year, Month: month, QuestionnaireStatus: status}
	return m
}

func (m *mockStore) GetVolunteers(ctx context.Context) ([]db.Volunteer, error) {
	if m.getVolunteersErr != nil {
		return nil, m.getVolunteersErr
	}
	return slices.Clone(m.volunteers), nil
}

func (m *mockStore) UpsertVolunteers(ctx context.Context, volunteers []db.Volunteer) error {
	for _, v := range volunteers {
		i := slices.IndexFunc(m.volunteers, func(e db.Volunteer) bool { return e.ID == v.ID })
		if i < 0 {
			m.volunteers = append(m.volunteers, v)
			continue
		}
		if v.LastService == nil {
			v.LastService = m.volunteers[i].LastService
		}
		m.volunteers[i] = v
	}
	return nil
}

func (m *mockStore) GetPeriod(ctx context.Context, year, month int) (*db.Period, error) {
	if m.getPeriodErr != nil {
		return nil, m.getPeriodErr
	}
	p, ok := m.periods[periodKey(year, month)]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &p, nil
}

func (m *mockStore) UpsertPeriod(ctx context.Context, period db.Period) error {
	m.periods[periodKey(period.Year, period.Month)] = period
	return nil
}

func (m *mockStore) GetAvailabilityRecords(ctx context.Context, year, month int) ([]db.AvailabilityRecord, error) {
	var records []db.AvailabilityRecord
	for _, r := range m.availability {
		if r.Year == year && r.Month == month {
			records = append(records, r)
		}
	}
	return records, nil
}

func (m *mockStore) InsertAvailabilityRecords(ctx context.Context, records []db.AvailabilityRecord) error {
	for _, r := range records {
		if slices.ContainsFunc(m.availability, func(e db.AvailabilityRecord) bool { return e.ID == r.ID }) {
			continue
		}
		m.availability = append(m.availability, r)
	}
	return nil
}

func (m *mockStore) GetAssignments(ctx context.Context, year, month int) ([]db.Assignment, error) {
	var records []db.Assignment
	for _, a := range m.assignments {
		if a.Year == year && a.Month == month {
			records = append(records, a)
		}
	}
	return records, nil
}

func (m *mockStore) WithPeriodLock(ctx context.Context, year, month int, fn func(tx db.AssignmentTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.locks++
	tx := &mockTx{store: m, assignments: slices.Clone(m.assignments), lastService: make(map[string]time.Time)}
	m.tx = tx
	if err := fn(tx); err != nil {
		return err
	}
	if m.txErr != nil {
		return m.txErr
	}

	m.assignments = tx.assignments
	for id, at := range tx.lastService {
		i := slices.IndexFunc(m.volunteers, func(v db.Volunteer) bool { return v.ID == id })
		if i < 0 {
			continue
		}
		if current := m.volunteers[i].LastService; current == nil || current.Before(at) {
			served := at
			m.volunteers[i].LastService = &served
		}
	}
	return nil
}

func (m *mockStore) GetLastServedBefore(ctx context.Context, before time.Time) ([]db.Assignment, error) {
	latest := make(map[string]db.Assignment)
	for _, a := range m.assignments {
		if a.VolunteerID == "" || (a.Status != "scheduled" && a.Status != "pinned") || !a.Date.Before(before) {
			continue
		}
		previous, ok := latest[a.VolunteerID]
		if !ok || a.Date.After(previous.Date) || (a.Date.Equal(previous.Date) && a.Time > previous.Time) {
			latest[a.VolunteerID] = a
		}
	}
	var served []db.Assignment
	for _, a := range latest {
		served = append(served, a)
	}
	return served, nil
}

// lastService returns the stored last service of every volunteer that has one
func (m *mockStore) lastService() map[string]time.Time {
	served := make(map[string]time.Time)
	for _, v := range m.volunteers {
		if v.LastService != nil {
			served[v.ID] = *v.LastService
		}
	}
	return served
}

// mockTx records every write of one locked callback
type mockTx struct {
	store       *mockStore
	assignments []db.Assignment
	lastService map[string]time.Time

	inserted   []db.Assignment
	updated    []db.Assignment
	superseded []string
}

func (t *mockTx) GetAssignments(ctx context.Context, year, month int) ([]db.Assignment, error) {
	var records []db.Assignment
	for _, a := range t.assignments {
		if a.Year == year && a.Month == month {
			records = append(records, a)
		}
	}
	return records, nil
}

func (t *mockTx) InsertAssignments(ctx context.Context, assignments []db.Assignment) error {
	t.inserted = append(t.inserted, assignments...)
	t.assignments = append(t.assignments, assignments...)
	return nil
}

func (t *mockTx) UpdateAssignments(ctx context.Context, assignments []db.Assignment) error {
	for _, a := range assignments {
		i := slices.IndexFunc(t.assignments, func(e db.Assignment) bool { return e.ID == a.ID })
		if i < 0 {
			return fmt.Errorf("assignment %s: %w", a.ID, db.ErrNotFound)
		}
		t.assignments[i] = a
	}
	t.updated = append(t.updated, assignments...)
	return nil
}

func (t *mockTx) SupersedeAssignments(ctx context.Context, ids []string) error {
	for _, id := range ids {
		i := slices.IndexFunc(t.assignments, func(e db.Assignment) bool { return e.ID == id })
		if i < 0 {
			return fmt.Errorf("assignment %s: %w", id, db.ErrNotFound)
		}
		t.assignments[i].Status = "superseded"
	}
	t.superseded = append(t.superseded, ids...)
	return nil
}

func (t *mockTx) UpdateLastService(ctx context.Context, lastService map[string]time.Time) error {
	for id, at := range lastService {
		t.lastService[id] = at
	}
	return nil
}

// activeAssignments returns the persisted records that are not superseded
func (m *mockStore) activeAssignments() []db.Assignment {
	var active []db.Assignment
	for _, a := range m.assignments {
		if a.Status != "superseded" {
			active = append(active, a)
		}
	}
	return active
}

func minister(id, name string) db.Volunteer {
	return db.Volunteer{ID: id, DisplayName: name, Role: "minister", Status: "active"}
}

// sundayPayload answers yes to every November 2025 Sunday mass and no to everything else
func sundayPayload() json.RawMessage {
	masses := map[string]map[string]bool{}
	for _, day := range []string{"2025-11-02", "2025-11-09", "2025-11-16", "2025-11-23", "2025-11-30"} {
		masses[day] = map[string]bool{"08:00": true, "10:00": true, "19:00": true}
	}
	raw, err := json.Marshal(map[string]any{
		"format_version": "2.0",
		"masses":         masses,
	})
	if err != nil {
		panic(err)
	}
	return raw
}

func submission(id, volunteerID string, payload json.RawMessage, at string) db.AvailabilityRecord {
	submitted, err := time.Parse(time.RFC3339, at)
	if err != nil {
		panic(err)
	}
	return db.AvailabilityRecord{ID: id, VolunteerID: volunteerID, Year: 2025, Month: 11, Payload: payload, SubmittedAt: submitted}
}

// novemberStore has a closed November 2025 with four ministers available on Sundays
func novemberStore() *mockStore {
	store := newMockStore().withPeriod(2025, 11, "closed")
	store.volunteers = []db.Volunteer{
		minister("v1", "Ana"),
		minister("v2", "Bruno"),
		minister("v3", "Carla"),
		minister("v4", "Diego"),
	}
	for i, v := range store.volunteers {
		store.availability = append(store.availability,
			submission(fmt.Sprintf("a%d", i+1), v.ID, sundayPayload(), "2025-10-20T12:00:00Z"))
	}
	return store
}

func testConfig() *config.Config {
	return &config.Config{Parish: config.Parish{Location: "Main church"}}
}
