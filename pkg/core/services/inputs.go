package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/parish-roster/internal/config"
	"github.com/jakechorley/parish-roster/pkg/core/allocator"
	"github.com/jakechorley/parish-roster/pkg/core/availability"
	"github.com/jakechorley/parish-roster/pkg/core/calendar"
	"github.com/jakechorley/parish-roster/pkg/core/model"
	"github.com/jakechorley/parish-roster/pkg/db"
)

// NormalizationWarning is an availability warning attributed to a volunteer
type NormalizationWarning struct {
	VolunteerID string
	RecordID    string
	Warning     availability.Warning
}

func (w NormalizationWarning) String() string {
	return fmt.Sprintf("%s (record %s): %s", w.VolunteerID, w.RecordID, w.Warning)
}

// periodInputs is everything read from the store to run the engine over one period
type periodInputs struct {
	Period       model.Period
	Slots        []model.Slot
	Volunteers   []model.Volunteer
	Availability map[string]*availability.Availability
	LastService  map[string]time.Time

	Warnings []NormalizationWarning

	// Skipped lists volunteer records that could not be used, with the reason
	Skipped []string
}

// engineSettings resolves the engine section of the config against the engine defaults
type engineSettings struct {
	ServingRoles           []model.Role
	PairingTolerance       int
	AlternateOnlyPenalty   float64
	LowConfidenceThreshold float64
}

func resolveEngineSettings(cfg *config.Config) engineSettings {
	settings := engineSettings{
		PairingTolerance:       allocator.DefaultPairingTolerance,
		AlternateOnlyPenalty:   allocator.DefaultAlternateOnlyPenalty,
		LowConfidenceThreshold: allocator.DefaultLowConfidenceThreshold,
	}
	for _, role := range cfg.Engine.ServingRoles {
		settings.ServingRoles = append(settings.ServingRoles, model.Role(role))
	}
	if cfg.Engine.PairingTolerance != nil {
		settings.PairingTolerance = *cfg.Engine.PairingTolerance
	}
	if cfg.Engine.AlternateOnlyPenalty != nil {
		settings.AlternateOnlyPenalty = *cfg.Engine.AlternateOnlyPenalty
	}
	if cfg.Engine.LowConfidenceThreshold != nil {
		settings.LowConfidenceThreshold = *cfg.Engine.LowConfidenceThreshold
	}
	return settings
}

// calendarOptions maps the calendar section of the config onto the standard calendar
func calendarOptions(cfg *config.Config) calendar.Options {
	opts := calendar.DefaultOptions()
	opts.Location = cfg.Parish.Location

	if n := cfg.Calendar.Novena; n != nil {
		opts.Novena = calendar.NovenaWindow{Month: time.Month(n.Month), StartDay: n.StartDay, EndDay: n.EndDay}
	}
	if f := cfg.Calendar.Feast; f != nil {
		opts.Feast = calendar.FeastDay{Day: f.Day, FestivalMonth: time.Month(f.FestivalMonth)}
	}
	if cfg.Calendar.Observances != nil {
		opts.Observances = make([]calendar.Observance, len(cfg.Calendar.Observances))
		for i, obs := range cfg.Calendar.Observances {
			opts.Observances[i] = calendar.Observance{
				Name:       obs.Name,
				Recurrence: obs.RRule,
				Time:       obs.Time,
				MinStaff:   obs.MinStaff,
				MaxStaff:   obs.MaxStaff,
				Label:      obs.Label,
			}
		}
	}
	return opts
}

// buildSlots builds the slot catalog of a period from the config
func buildSlots(cfg *config.Config, period model.Period) ([]model.Slot, error) {
	rules, err := calendar.NewRuleSet(calendarOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar rules: %w", err)
	}
	slots, err := calendar.BuildSlots(period, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to build slots: %w", err)
	}
	return slots, nil
}

// periodStatus reads the questionnaire status of a period. A period never stored is
// reported as not found.
func periodStatus(ctx context.Context, store db.PeriodStore, period model.Period) (model.QuestionnaireStatus, error) {
	record, err := store.GetPeriod(ctx, period.Year, int(period.Month))
	if errors.Is(err, db.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrPeriodNotFound, period)
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch period: %w", err)
	}
	return record.ToModel().QuestionnaireStatus, nil
}

// inputStore is the read surface needed to assemble engine inputs
type inputStore interface {
	db.VolunteerStore
	db.AvailabilityStore
}

// loadPeriodInputs reads volunteers and availability, keeps each volunteer's latest
// submission and normalizes it. Unusable records are skipped and reported, never fatal.
func loadPeriodInputs(
	ctx context.Context,
	store inputStore,
	cfg *config.Config,
	logger *zap.Logger,
	period model.Period,
) (*periodInputs, error) {
	inputs := &periodInputs{
		Period:       period,
		Availability: make(map[string]*availability.Availability),
		LastService:  make(map[string]time.Time),
		Warnings:     []NormalizationWarning{},
		Skipped:      []string{},
	}

	slots, err := buildSlots(cfg, period)
	if err != nil {
		return nil, err
	}
	inputs.Slots = slots
	logger.Debug("Built slot catalog", zap.String("period", period.Key()), zap.Int("slots", len(slots)))

	logger.Debug("Fetching volunteers")
	records, err := store.GetVolunteers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch volunteers: %w", err)
	}

	known := make(map[string]bool, len(records))
	for _, record := range records {
		v, err := record.ToModel()
		if err != nil {
			logger.Warn("Skipping volunteer", zap.String("volunteer_id", record.ID), zap.Error(err))
			inputs.Skipped = append(inputs.Skipped, err.Error())
			continue
		}
		known[v.ID] = true
		inputs.Volunteers = append(inputs.Volunteers, v)
	}
	logger.Debug("Found volunteers", zap.Int("count", len(inputs.Volunteers)))

	logger.Debug("Fetching availability")
	submissions, err := store.GetAvailabilityRecords(ctx, period.Year, int(period.Month))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availability: %w", err)
	}

	opts := availability.Options{Period: period, FeastDay: calendarOptions(cfg).Feast.Day}
	for _, record := range latestSubmissions(submissions) {
		if !known[record.VolunteerID] {
			reason := fmt.Sprintf("availability %s belongs to unknown volunteer %s", record.ID, record.VolunteerID)
			logger.Warn("Skipping availability", zap.String("record_id", record.ID), zap.String("volunteer_id", record.VolunteerID))
			inputs.Skipped = append(inputs.Skipped, reason)
			continue
		}

		normalized, warnings := availability.Normalize(record.Payload, opts)
		inputs.Availability[record.VolunteerID] = normalized
		for _, w := range warnings {
			logger.Warn("Availability normalization warning",
				zap.String("volunteer_id", record.VolunteerID),
				zap.String("kind", string(w.Kind)),
				zap.String("question", w.QuestionKey),
				zap.String("message", w.Message))
			inputs.Warnings = append(inputs.Warnings, NormalizationWarning{VolunteerID: record.VolunteerID, RecordID: record.ID, Warning: w})
		}
	}
	logger.Debug("Normalized availability",
		zap.Int("volunteers_with_answers", len(inputs.Availability)),
		zap.Int("warnings", len(inputs.Warnings)))

	return inputs, nil
}

// loadServiceHistory returns each volunteer's latest service before the period starts.
// Stored last service timestamps inside or after the period are ignored, so committing
// a period never changes the fairness inputs of its own re-runs. Seats of earlier periods
// fill the gap.
func loadServiceHistory(
	ctx context.Context,
	store db.ServiceHistoryReader,
	logger *zap.Logger,
	volunteers []model.Volunteer,
	period model.Period,
	location *time.Location,
) (map[string]time.Time, error) {
	start := time.Date(period.Year, period.Month, 1, 0, 0, 0, 0, location)

	history := make(map[string]time.Time, len(volunteers))
	for _, v := range volunteers {
		if v.LastService != nil && v.LastService.Before(start) {
			history[v.ID] = *v.LastService
		}
	}

	served, err := store.GetLastServedBefore(ctx, period.Start())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch service history: %w", err)
	}
	for _, a := range served {
		at := model.Slot{Date: a.Date, Time: a.Time}.StartsAt(location)
		if previous, ok := history[a.VolunteerID]; !ok || at.After(previous) {
			history[a.VolunteerID] = at
		}
	}

	logger.Debug("Loaded service history", zap.String("period", period.Key()), zap.Int("volunteers", len(history)))
	return history, nil
}

// latestSubmissions keeps the most recent submission of each volunteer, in volunteer order
// of first appearance. Ties on submission time go to the record listed last.
func latestSubmissions(records []db.AvailabilityRecord) []db.AvailabilityRecord {
	index := make(map[string]int)
	var latest []db.AvailabilityRecord
	for _, r := range records {
		i, seen := index[r.VolunteerID]
		if !seen {
			index[r.VolunteerID] = len(latest)
			latest = append(latest, r)
			continue
		}
		if !r.SubmittedAt.Before(latest[i].SubmittedAt) {
			latest[i] = r
		}
	}
	return latest
}
