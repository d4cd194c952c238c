package merger

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// DiagnosticKind classifies a merge diagnostic
type DiagnosticKind string

const (
	// DiagnosticPinnedPreserved means a generated assignment was dropped because a pinned
	// or manual assignment holds the seat
	DiagnosticPinnedPreserved DiagnosticKind = "pinned_preserved"

	// DiagnosticDuplicateExisting means more than one active record existed for a seat
	DiagnosticDuplicateExisting DiagnosticKind = "duplicate_existing"

	// DiagnosticDuplicateGenerated means the run produced the same seat twice
	DiagnosticDuplicateGenerated DiagnosticKind = "duplicate_generated"
)

// Diagnostic describes a merge decision worth surfacing to an administrator
type Diagnostic struct {
	Kind    DiagnosticKind
	Key     model.AssignmentKey
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%s]: %s", d.Kind, d.Key, d.Message)
}

// Plan is the set of writes that reconciles a generation run with persisted assignments
type Plan struct {
	// ToInsert are new records for seats that had no active record
	ToInsert []model.Assignment

	// ToUpdate are existing generated records whose content changed, keeping their ID
	ToUpdate []model.Assignment

	// ToSkip are generated assignments that need no write: unchanged, or blocked by a pin
	ToSkip []model.Assignment

	// ToSupersede are existing generated records no longer produced by the run, already
	// carrying the superseded status
	ToSupersede []model.Assignment

	Diagnostics []Diagnostic

	// LastService maps volunteer ID to their latest service among inserted and updated
	// scheduled assignments
	LastService map[string]time.Time
}

// Writes returns the number of records the plan changes
func (p *Plan) Writes() int {
	return len(p.ToInsert) + len(p.ToUpdate) + len(p.ToSupersede)
}

// Options configures Merge
type Options struct {
	// Location turns assignment dates and times into service instants (UTC when nil)
	Location *time.Location

	// NewID generates IDs for inserted records (uuid when nil)
	NewID func() string
}

// Merge reconciles freshly generated assignments with the persisted ones of the same period.
//
// Seats are matched on (date, time, position):
//   - A pinned or manual record is never touched; the generated assignment for its seat
//     is skipped with a diagnostic
//   - A generated record with identical content is skipped
//   - A generated record with different content is updated in place
//   - A seat with no active record gets an insert, vacancies included
//   - A generated record whose seat the run no longer produces is superseded
//
// Superseded records are ignored. Merging the same generation twice against the result
// of the first merge yields a plan with no writes.
func Merge(generated, existing []model.Assignment, opts Options) *Plan {
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	location := opts.Location
	if location == nil {
		location = time.UTC
	}

	plan := &Plan{
		ToInsert:    []model.Assignment{},
		ToUpdate:    []model.Assignment{},
		ToSkip:      []model.Assignment{},
		ToSupersede: []model.Assignment{},
		Diagnostics: []Diagnostic{},
		LastService: make(map[string]time.Time),
	}

	active := indexActive(existing, plan)

	ordered := slices.Clone(generated)
	slices.SortStableFunc(ordered, compareSeat)

	produced := make(map[model.AssignmentKey]bool, len(ordered))
	for _, g := range ordered {
		key := g.Key()
		if produced[key] {
			plan.ToSkip = append(plan.ToSkip, g)
			plan.Diagnostics = append(plan.Diagnostics, Diagnostic{
				Kind:    DiagnosticDuplicateGenerated,
				Key:     key,
				Message: "run produced the seat twice, keeping the first",
			})
			continue
		}
		produced[key] = true

		current, ok := active[key]
		switch {
		case !ok:
			g.ID = newID()
			plan.ToInsert = append(plan.ToInsert, g)
			plan.recordService(g, location)

		case current.IsPinned():
			plan.ToSkip = append(plan.ToSkip, g)
			plan.Diagnostics = append(plan.Diagnostics, Diagnostic{
				Kind:    DiagnosticPinnedPreserved,
				Key:     key,
				Message: pinnedMessage(current, g),
			})

		case sameContent(current, g):
			plan.ToSkip = append(plan.ToSkip, g)

		default:
			updated := current
			updated.SlotID = g.SlotID
			updated.VolunteerID = g.VolunteerID
			updated.Status = g.Status
			updated.Provenance = model.ProvenanceGenerated
			plan.ToUpdate = append(plan.ToUpdate, updated)
			plan.recordService(updated, location)
		}
	}

	for _, key := range sortedKeys(active) {
		current := active[key]
		if produced[key] || current.IsPinned() {
			continue
		}
		current.Status = model.AssignmentSuperseded
		plan.ToSupersede = append(plan.ToSupersede, current)
	}

	return plan
}

// indexActive maps each seat to its active record. When a seat has several, a pinned one
// wins, otherwise the lowest ID; the generated extras are superseded.
func indexActive(existing []model.Assignment, plan *Plan) map[model.AssignmentKey]model.Assignment {
	ordered := slices.Clone(existing)
	slices.SortStableFunc(ordered, func(a, b model.Assignment) int {
		if c := compareSeat(a, b); c != 0 {
			return c
		}
		// Pinned first, then by ID
		if a.IsPinned() != b.IsPinned() {
			if a.IsPinned() {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})

	active := make(map[model.AssignmentKey]model.Assignment, len(ordered))
	for _, e := range ordered {
		if e.Status == model.AssignmentSuperseded {
			continue
		}
		key := e.Key()
		kept, exists := active[key]
		if !exists {
			active[key] = e
			continue
		}

		message := fmt.Sprintf("record %s duplicates %s", e.ID, kept.ID)
		if !e.IsPinned() {
			e.Status = model.AssignmentSuperseded
			plan.ToSupersede = append(plan.ToSupersede, e)
			message += ", superseding it"
		}
		plan.Diagnostics = append(plan.Diagnostics, Diagnostic{Kind: DiagnosticDuplicateExisting, Key: key, Message: message})
	}
	return active
}

func sameContent(a, b model.Assignment) bool {
	return a.SlotID == b.SlotID &&
		a.VolunteerID == b.VolunteerID &&
		a.Status == b.Status &&
		a.Provenance == b.Provenance
}

func pinnedMessage(pinned, generated model.Assignment) string {
	holder := pinned.VolunteerID
	if holder == "" {
		holder = "a pinned vacancy"
	}
	candidate := generated.VolunteerID
	if candidate == "" {
		candidate = "a vacancy"
	}
	return fmt.Sprintf("seat held by %s, dropped generated %s", holder, candidate)
}

func (p *Plan) recordService(a model.Assignment, location *time.Location) {
	if a.VolunteerID == "" || a.Status != model.AssignmentScheduled {
		return
	}
	at := serviceInstant(a, location)
	if previous, ok := p.LastService[a.VolunteerID]; !ok || at.After(previous) {
		p.LastService[a.VolunteerID] = at
	}
}

func serviceInstant(a model.Assignment, location *time.Location) time.Time {
	clock, err := time.Parse(model.TimeLayout, a.Time)
	if err != nil {
		return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), 0, 0, 0, 0, location)
	}
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), clock.Hour(), clock.Minute(), 0, 0, location)
}

// compareSeat orders assignments by date, time and position
func compareSeat(a, b model.Assignment) int {
	ka, kb := a.Key(), b.Key()
	if c := strings.Compare(ka.Date, kb.Date); c != 0 {
		return c
	}
	if c := strings.Compare(ka.Time, kb.Time); c != 0 {
		return c
	}
	return cmp.Compare(ka.Position, kb.Position)
}

func sortedKeys(m map[model.AssignmentKey]model.Assignment) []model.AssignmentKey {
	keys := make([]model.AssignmentKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b model.AssignmentKey) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		if c := strings.Compare(a.Time, b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})
	return keys
}
