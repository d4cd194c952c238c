package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/parish-roster/pkg/core/model"
	"github.com/jakechorley/parish-roster/pkg/db"
)

// SetPeriodStatus opens or closes the questionnaire of a period, creating the period if needed
func SetPeriodStatus(
	ctx context.Context,
	store db.PeriodStore,
	previews *PreviewCache,
	logger *zap.Logger,
	year, month int,
	status model.QuestionnaireStatus,
) (*model.Period, error) {
	period := model.Period{Year: year, Month: time.Month(month), QuestionnaireStatus: status}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid questionnaire status %q", status)
	}

	logger.Debug("Setting period status", zap.String("period", period.Key()), zap.String("status", string(status)))

	if err := store.UpsertPeriod(ctx, db.PeriodFromModel(period)); err != nil {
		return nil, fmt.Errorf("failed to set period status: %w", err)
	}

	// Cached previews carry the old draft flag
	previews.Invalidate(period)

	logger.Info("Period status updated", zap.String("period", period.Key()), zap.String("status", string(status)))
	return &period, nil
}
