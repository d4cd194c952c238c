package services

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/parish-roster/internal/config"
	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// ListSlotsResult is the slot catalog of a period
type ListSlotsResult struct {
	Period model.Period
	Slots  []model.Slot

	// Totals of the staffing bounds over every slot
	MinStaff int
	MaxStaff int
}

// ListSlots builds the slot catalog for a period without touching the store
func ListSlots(cfg *config.Config, logger *zap.Logger, year, month int) (*ListSlotsResult, error) {
	period := model.Period{Year: year, Month: time.Month(month)}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Building slot catalog", zap.String("period", period.Key()))
	slots, err := buildSlots(cfg, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots for %s: %w", period, err)
	}

	result := &ListSlotsResult{Period: period, Slots: slots}
	for _, s := range slots {
		result.MinStaff += s.MinStaff
		result.MaxStaff += s.MaxStaff
	}

	logger.Debug("Slot catalog built",
		zap.Int("slots", len(slots)),
		zap.Int("min_staff", result.MinStaff),
		zap.Int("max_staff", result.MaxStaff))

	return result, nil
}
