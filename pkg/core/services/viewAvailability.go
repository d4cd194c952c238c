package services

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/parish-roster/internal/config"
	"github.com/jakechorley/parish-roster/pkg/core/availability"
	"github.com/jakechorley/parish-roster/pkg/core/eligibility"
	"github.com/jakechorley/parish-roster/pkg/core/model"
	"github.com/jakechorley/parish-roster/pkg/db"
)

// VolunteerAvailability summarises one volunteer's normalized answers for a period
type VolunteerAvailability struct {
	Volunteer    model.Volunteer
	Availability *availability.Availability // nil when the volunteer has not answered

	// Eligible counts the slots of the period the volunteer may serve
	Eligible int

	// Preferred counts the eligible slots at a preferred time
	Preferred int
}

// ViewAvailabilityResult contains the availability overview of a period
type ViewAvailabilityResult struct {
	Period     model.Period
	Slots      []model.Slot
	Volunteers []VolunteerAvailability // sorted by display name
	Warnings   []NormalizationWarning
	Skipped    []string
}

// ViewAvailabilityStore defines the database operations needed to view availability
type ViewAvailabilityStore interface {
	db.VolunteerStore
	db.AvailabilityStore
}

// ViewAvailability normalizes every volunteer's latest submission for a period and
// reports what each one is eligible for, together with every normalization warning
func ViewAvailability(
	ctx context.Context,
	store ViewAvailabilityStore,
	cfg *config.Config,
	logger *zap.Logger,
	year, month int,
) (*ViewAvailabilityResult, error) {
	period := model.Period{Year: year, Month: time.Month(month)}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Starting viewAvailability", zap.String("period", period.Key()))

	inputs, err := loadPeriodInputs(ctx, store, cfg, logger, period)
	if err != nil {
		return nil, err
	}

	filter := eligibility.NewFilter(resolveEngineSettings(cfg).ServingRoles)
	matrix := eligibility.BuildMatrix(filter, inputs.Volunteers, inputs.Slots, inputs.Availability)

	result := &ViewAvailabilityResult{
		Period:   period,
		Slots:    inputs.Slots,
		Warnings: inputs.Warnings,
		Skipped:  inputs.Skipped,
	}

	for _, v := range inputs.Volunteers {
		entry := VolunteerAvailability{Volunteer: v, Availability: inputs.Availability[v.ID]}
		for _, slot := range inputs.Slots {
			switch matrix.Match(v.ID, slot.ID) {
			case eligibility.PreferredMatch:
				entry.Preferred++
				entry.Eligible++
			case eligibility.AlternateMatch:
				entry.Eligible++
			}
		}
		result.Volunteers = append(result.Volunteers, entry)
	}

	sort.SliceStable(result.Volunteers, func(i, j int) bool {
		a, b := result.Volunteers[i].Volunteer, result.Volunteers[j].Volunteer
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.ID < b.ID
	})

	logger.Debug("Availability overview built",
		zap.Int("volunteers", len(result.Volunteers)),
		zap.Int("warnings", len(result.Warnings)))

	return result, nil
}
