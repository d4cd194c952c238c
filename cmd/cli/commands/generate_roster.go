package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/parish-roster/pkg/core/services"
)

// PreviewRosterCmd creates the previewRoster command
func PreviewRosterCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "previewRoster <year> <month>",
		Short: "Generate a roster for a month without saving it",
		Long: `Generate a roster for a month without saving it.
An open questionnaire is allowed: the roster is marked as a draft and every slot as low-confidence.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateRoster(app, args, services.ModePreview)
		},
	}
}

// CommitRosterCmd creates the commitRoster command
func CommitRosterCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "commitRoster <year> <month>",
		Short: "Generate a roster for a month and save it",
		Long: `Generate a roster for a month and save it.
The month's questionnaire must be closed. Pinned assignments are kept, unchanged assignments are left
alone and running the command twice writes nothing the second time.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateRoster(app, args, services.ModeCommit)
		},
	}
}

func runGenerateRoster(app *AppContext, args []string, mode services.Mode) error {
	year, month, err := parsePeriodArgs(args)
	if err != nil {
		return err
	}

	app.Logger.Debug("generateRoster command", zap.Int("year", year), zap.Int("month", month), zap.String("mode", string(mode)))

	result, err := services.GenerateRoster(app.Ctx, app.Database, app.Previews, app.Metrics, app.Cfg, app.Logger, year, month, mode)
	if err != nil {
		return err
	}

	printRoster(result, volunteerNames(app))
	return nil
}
