package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/parish-roster/internal/config"
	"github.com/jakechorley/parish-roster/pkg/core/allocator"
	"github.com/jakechorley/parish-roster/pkg/core/allocator/criteria"
	"github.com/jakechorley/parish-roster/pkg/core/eligibility"
	"github.com/jakechorley/parish-roster/pkg/core/merger"
	"github.com/jakechorley/parish-roster/pkg/core/model"
	"github.com/jakechorley/parish-roster/pkg/db"
	"github.com/jakechorley/parish-roster/pkg/metrics"
)

// Mode selects between a side-effect free preview and a persisted commit
type Mode string

const (
	ModePreview Mode = "preview"
	ModeCommit  Mode = "commit"
)

// GenerateRosterStore defines the database operations needed to generate a roster
type GenerateRosterStore interface {
	db.VolunteerStore
	db.PeriodStore
	db.AvailabilityStore
	db.AssignmentReader
	db.ServiceHistoryReader
	db.PeriodLocker
}

// LowConfidenceSlot flags a slot an administrator should look at
type LowConfidenceSlot struct {
	SlotID     string
	Filled     int
	MinStaff   int
	Confidence float64
}

func (s LowConfidenceSlot) String() string {
	return fmt.Sprintf("%s: %d/%d filled, confidence %.2f", s.SlotID, s.Filled, s.MinStaff, s.Confidence)
}

// Diagnostics collects every recoverable problem found during a run. None of them
// blocks a commit.
type Diagnostics struct {
	Normalization  []NormalizationWarning
	SkippedRecords []string
	LowConfidence  []LowConfidenceSlot
	Validation     []allocator.SlotValidationError
	IgnoredPins    []allocator.IgnoredPin
	Merge          []merger.Diagnostic
}

// Count returns the total number of diagnostics
func (d Diagnostics) Count() int {
	return len(d.Normalization) + len(d.SkippedRecords) + len(d.LowConfidence) +
		len(d.Validation) + len(d.IgnoredPins) + len(d.Merge)
}

// MergeSummary counts the writes of a commit
type MergeSummary struct {
	Inserted   int
	Updated    int
	Skipped    int
	Superseded int
}

// GenerateRosterResult is the outcome of a generation run
type GenerateRosterResult struct {
	RunID  string
	Period model.Period
	Mode   Mode

	// Draft is set when the questionnaire was still open, making every slot low-confidence
	Draft bool

	Slots        []model.Slot
	SlotOutcomes []allocator.SlotOutcome

	// Assignments is the full roster ordered by seat: pinned records plus the generated
	// assignments and vacancies of this run
	Assignments []model.Assignment

	Quality     allocator.QualityMetrics
	LastService map[string]time.Time
	Diagnostics Diagnostics

	// Merge is set on commit
	Merge *MergeSummary
}

// GenerateRoster runs the allocation engine over a period.
//
// Preview mode tolerates an open questionnaire (or a period never stored) and writes nothing;
// its result is cached per period. Commit mode requires a closed questionnaire, then, while
// holding the period lock, re-reads the persisted assignments, allocates around pinned ones,
// merges and writes the plan and moves volunteers' last service forward.
func GenerateRoster(
	ctx context.Context,
	store GenerateRosterStore,
	previews *PreviewCache,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
	year, month int,
	mode Mode,
) (*GenerateRosterResult, error) {
	start := time.Now()
	logger.Debug("Starting generateRoster", zap.Int("year", year), zap.Int("month", month), zap.String("mode", string(mode)))

	result, err := generateRoster(ctx, store, previews, m, cfg, logger, year, month, mode)

	outcome := metrics.OutcomeSuccess
	switch {
	case err != nil:
		outcome = metrics.OutcomeFailed
	case result.cached:
		outcome = metrics.OutcomeCached
	}
	if m != nil {
		m.ObserveRun(string(mode), outcome, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	return result.GenerateRosterResult, nil
}

type runResult struct {
	*GenerateRosterResult
	cached bool
}

func generateRoster(
	ctx context.Context,
	store GenerateRosterStore,
	previews *PreviewCache,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
	year, month int,
	mode Mode,
) (*runResult, error) {
	if mode != ModePreview && mode != ModeCommit {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	period := model.Period{Year: year, Month: time.Month(month)}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	status, err := periodStatus(ctx, store, period)
	switch {
	case err == nil:
	case mode == ModePreview && errors.Is(err, ErrPeriodNotFound):
		logger.Info("Period not stored yet, previewing as draft", zap.String("period", period.Key()))
		status = model.QuestionnaireDraft
	default:
		return nil, err
	}
	period.QuestionnaireStatus = status

	if mode == ModeCommit && status != model.QuestionnaireClosed {
		return nil, fmt.Errorf("%w: %s is %s", ErrQuestionnaireNotClosed, period, status)
	}

	if mode == ModePreview {
		if cached, ok := previews.Get(period); ok {
			logger.Debug("Returning cached preview", zap.String("period", period.Key()), zap.String("run_id", cached.RunID))
			return &runResult{GenerateRosterResult: cached, cached: true}, nil
		}
	}

	inputs, err := loadPeriodInputs(ctx, store, cfg, logger, period)
	if err != nil {
		return nil, err
	}

	location, err := cfg.TimeLocation()
	if err != nil {
		return nil, err
	}

	if inputs.LastService, err = loadServiceHistory(ctx, store, logger, inputs.Volunteers, period, location); err != nil {
		return nil, err
	}

	run := &runner{
		inputs:   inputs,
		settings: resolveEngineSettings(cfg),
		location: location,
		draft:    status != model.QuestionnaireClosed,
		runID:    uuid.New().String(),
		logger:   logger,
	}

	var result *GenerateRosterResult
	if mode == ModePreview {
		existing, err := store.GetAssignments(ctx, year, month)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch assignments: %w", err)
		}
		if result, err = run.allocate(existing); err != nil {
			return nil, err
		}
		previews.Set(period, result)
	} else {
		err := store.WithPeriodLock(ctx, year, month, func(tx db.AssignmentTx) error {
			existing, err := tx.GetAssignments(ctx, year, month)
			if err != nil {
				return fmt.Errorf("failed to fetch assignments: %w", err)
			}
			if result, err = run.allocate(existing); err != nil {
				return err
			}
			return run.commit(ctx, tx, existing, result)
		})
		if err != nil {
			return nil, err
		}
		previews.Invalidate(period)
		if m != nil {
			m.AddWrites(result.Merge.Inserted, result.Merge.Updated, result.Merge.Superseded)
		}
	}

	result.Mode = mode
	if m != nil {
		m.SetPeriodQuality(period.Key(), result.Quality.LowConfidenceSlots, result.Quality.Vacancies)
		for _, w := range result.Diagnostics.Normalization {
			m.AddWarning(string(w.Warning.Kind))
		}
	}

	logger.Info("Roster generated",
		zap.String("run_id", result.RunID),
		zap.String("period", period.Key()),
		zap.String("mode", string(mode)),
		zap.Int("slots", result.Quality.TotalSlots),
		zap.Int("assignments", result.Quality.TotalAssignments),
		zap.Int("vacancies", result.Quality.Vacancies),
		zap.Int("low_confidence_slots", result.Quality.LowConfidenceSlots),
		zap.Float64("average_fill_rate", result.Quality.AverageFillRate),
		zap.Int("diagnostics", result.Diagnostics.Count()))

	return &runResult{GenerateRosterResult: result}, nil
}

// runner holds the inputs of one generation run
type runner struct {
	inputs   *periodInputs
	settings engineSettings
	location *time.Location
	draft    bool
	runID    string
	logger   *zap.Logger
}

// allocate runs the engine around the pinned records among existing
func (r *runner) allocate(existing []db.Assignment) (*GenerateRosterResult, error) {
	var pinned []model.Assignment
	for _, record := range existing {
		a := record.ToModel()
		if a.IsPinned() && a.Status != model.AssignmentSuperseded {
			pinned = append(pinned, a)
		}
	}
	r.logger.Debug("Found pinned assignments", zap.Int("count", len(pinned)))

	filter := eligibility.NewFilter(r.settings.ServingRoles)
	matrix := eligibility.BuildMatrix(filter, r.inputs.Volunteers, r.inputs.Slots, r.inputs.Availability)

	outcome, err := allocator.Allocate(allocator.AllocationConfig{
		Criteria:               criteria.Default(),
		Slots:                  r.inputs.Slots,
		Volunteers:             r.inputs.Volunteers,
		Eligibility:            matrix,
		LastService:            r.inputs.LastService,
		Pinned:                 pinned,
		Location:               r.location,
		PairingTolerance:       r.settings.PairingTolerance,
		AlternateOnlyPenalty:   r.settings.AlternateOnlyPenalty,
		LowConfidenceThreshold: r.settings.LowConfidenceThreshold,
		Draft:                  r.draft,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to allocate roster: %w", err)
	}

	result := &GenerateRosterResult{
		RunID:        r.runID,
		Period:       r.inputs.Period,
		Draft:        r.draft,
		Slots:        r.inputs.Slots,
		SlotOutcomes: outcome.Slots,
		Assignments:  rosterAssignments(outcome.Assignments, pinned, outcome.IgnoredPins),
		Quality:      outcome.Quality,
		LastService:  outcome.LastService,
		Diagnostics: Diagnostics{
			Normalization:  r.inputs.Warnings,
			SkippedRecords: r.inputs.Skipped,
			LowConfidence:  []LowConfidenceSlot{},
			Validation:     outcome.ValidationErrors,
			IgnoredPins:    outcome.IgnoredPins,
			Merge:          []merger.Diagnostic{},
		},
	}

	for _, slot := range outcome.Slots {
		if !slot.LowConfidence {
			continue
		}
		result.Diagnostics.LowConfidence = append(result.Diagnostics.LowConfidence, LowConfidenceSlot{
			SlotID:     slot.SlotID,
			Filled:     slot.Filled,
			MinStaff:   slot.MinStaff,
			Confidence: slot.Confidence,
		})
		// Every slot of a draft is low-confidence, so only real shortfalls are worth a warning
		if slot.Filled < slot.MinStaff {
			r.logger.Warn("Slot is understaffed",
				zap.String("slot_id", slot.SlotID),
				zap.Int("filled", slot.Filled),
				zap.Int("min_staff", slot.MinStaff),
				zap.Float64("confidence", slot.Confidence))
		}
	}
	for _, ignored := range outcome.IgnoredPins {
		r.logger.Warn("Pinned assignment ignored",
			zap.String("assignment_id", ignored.Assignment.ID),
			zap.String("reason", ignored.Reason))
	}
	for _, v := range outcome.ValidationErrors {
		r.logger.Warn("Roster validation error",
			zap.String("slot_id", v.SlotID),
			zap.String("criterion", v.CriterionName),
			zap.String("description", v.Description))
	}

	return result, nil
}

// commit merges the run into the persisted assignments and writes the plan
func (r *runner) commit(ctx context.Context, tx db.AssignmentTx, existing []db.Assignment, result *GenerateRosterResult) error {
	generated := make([]model.Assignment, 0, len(result.Assignments))
	for _, a := range result.Assignments {
		if a.Provenance == model.ProvenanceGenerated && !a.IsPinned() {
			generated = append(generated, a)
		}
	}

	plan := merger.Merge(generated, db.AssignmentsToModel(existing), merger.Options{Location: r.location})
	r.logger.Debug("Merge plan",
		zap.Int("insert", len(plan.ToInsert)),
		zap.Int("update", len(plan.ToUpdate)),
		zap.Int("skip", len(plan.ToSkip)),
		zap.Int("supersede", len(plan.ToSupersede)))

	// Supersede first so freed seats can take new records
	ids := make([]string, len(plan.ToSupersede))
	for i, a := range plan.ToSupersede {
		ids[i] = a.ID
	}
	if err := tx.SupersedeAssignments(ctx, ids); err != nil {
		return err
	}
	if err := tx.UpdateAssignments(ctx, r.records(plan.ToUpdate)); err != nil {
		return err
	}
	if err := tx.InsertAssignments(ctx, r.records(plan.ToInsert)); err != nil {
		return err
	}
	if err := tx.UpdateLastService(ctx, plan.LastService); err != nil {
		return err
	}

	for _, d := range plan.Diagnostics {
		r.logger.Warn("Merge diagnostic", zap.String("kind", string(d.Kind)), zap.String("seat", d.Key.String()), zap.String("message", d.Message))
	}
	result.Diagnostics.Merge = plan.Diagnostics
	result.Merge = &MergeSummary{
		Inserted:   len(plan.ToInsert),
		Updated:    len(plan.ToUpdate),
		Skipped:    len(plan.ToSkip),
		Superseded: len(plan.ToSupersede),
	}

	// Persisted IDs replace the empty IDs of the generated assignments
	byKey := make(map[model.AssignmentKey]model.Assignment, len(plan.ToInsert)+len(plan.ToUpdate))
	for _, a := range append(slices.Clone(plan.ToInsert), plan.ToUpdate...) {
		byKey[a.Key()] = a
	}
	for i, a := range result.Assignments {
		if persisted, ok := byKey[a.Key()]; ok && a.ID == "" {
			result.Assignments[i].ID = persisted.ID
		}
	}
	return nil
}

func (r *runner) records(assignments []model.Assignment) []db.Assignment {
	records := make([]db.Assignment, len(assignments))
	for i, a := range assignments {
		records[i] = db.AssignmentFromModel(a, r.inputs.Period, r.runID)
	}
	return records
}

// rosterAssignments combines the generated assignments with the pins that took a seat
func rosterAssignments(generated, pinned []model.Assignment, ignored []allocator.IgnoredPin) []model.Assignment {
	skip := make(map[string]bool, len(ignored))
	for _, i := range ignored {
		skip[i.Assignment.ID] = true
	}

	roster := slices.Clone(generated)
	for _, p := range pinned {
		if !skip[p.ID] {
			roster = append(roster, p)
		}
	}
	slices.SortStableFunc(roster, func(a, b model.Assignment) int {
		ka, kb := a.Key(), b.Key()
		if c := strings.Compare(ka.Date, kb.Date); c != 0 {
			return c
		}
		if c := strings.Compare(ka.Time, kb.Time); c != 0 {
			return c
		}
		return cmp.Compare(ka.Position, kb.Position)
	})
	return roster
}
