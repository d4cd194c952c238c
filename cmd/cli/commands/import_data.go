package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jakechorley/parish-roster/pkg/core/services"
)

// ImportDataCmd creates the importData command
func ImportDataCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "importData <file>",
		Short: "Import volunteers, months and questionnaire answers from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read seed file: %w", err)
			}

			result, err := services.ImportData(app.Ctx, app.Database, app.Previews, app.Logger, data)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Imported %d volunteers, %d months and %d questionnaire answers\n\n",
				result.Volunteers, result.Periods, result.Availability)
			return nil
		},
	}
}
