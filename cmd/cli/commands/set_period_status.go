package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/parish-roster/pkg/core/model"
	"github.com/jakechorley/parish-roster/pkg/core/services"
)

// SetPeriodStatusCmd creates the setPeriodStatus command
func SetPeriodStatusCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "setPeriodStatus <year> <month> <draft|closed>",
		Short: "Open (draft) or close a month's questionnaire, creating the month if needed",
		Long: `Open (draft) or close a month's questionnaire, creating the month if needed.
A roster can only be committed once its questionnaire is closed.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := model.QuestionnaireStatus(args[len(args)-1])
			year, month, err := parsePeriodArgs(args[:len(args)-1])
			if err != nil {
				return err
			}

			period, err := services.SetPeriodStatus(app.Ctx, app.Database, app.Previews, app.Logger, year, month, status)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Questionnaire for %s is now %s\n\n", period.Key(), period.QuestionnaireStatus)
			return nil
		},
	}
}
