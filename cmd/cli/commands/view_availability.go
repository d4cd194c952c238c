package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/parish-roster/pkg/core/services"
)

// ViewAvailabilityCmd creates the viewAvailability command
func ViewAvailabilityCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "viewAvailability <year> <month>",
		Short: "Show what each volunteer answered and which slots they can serve",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parsePeriodArgs(args)
			if err != nil {
				return err
			}

			result, err := services.ViewAvailability(app.Ctx, app.Database, app.Cfg, app.Logger, year, month)
			if err != nil {
				return err
			}

			maxNameLen := 20
			for _, v := range result.Volunteers {
				if len(v.Volunteer.DisplayName) > maxNameLen {
					maxNameLen = len(v.Volunteer.DisplayName)
				}
			}

			fmt.Printf("\nAvailability for %s (%d slots)\n\n", result.Period.Key(), len(result.Slots))
			fmt.Printf("%-*s %-12s %-12s %9s %9s\n", maxNameLen+2, "Volunteer", "Role", "Answer", "Eligible", "Preferred")
			for _, v := range result.Volunteers {
				answer := colorRed + "none" + colorReset
				if v.Availability != nil {
					answer = colorGreen + string(v.Availability.Format) + colorReset
				}
				fmt.Printf("%-*s %-12s %-21s %9d %9d\n",
					maxNameLen+2, v.Volunteer.DisplayName, v.Volunteer.Role, answer, v.Eligible, v.Preferred)
			}

			printDiagnostics(services.Diagnostics{Normalization: result.Warnings, SkippedRecords: result.Skipped})
			fmt.Println()

			return nil
		},
	}
}
