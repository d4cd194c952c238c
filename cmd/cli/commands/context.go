package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/parish-roster/internal/config"
	"github.com/jakechorley/parish-roster/pkg/core/services"
	"github.com/jakechorley/parish-roster/pkg/db"
	"github.com/jakechorley/parish-roster/pkg/metrics"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	Previews *services.PreviewCache
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Ctx      context.Context
}
