package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/parish-roster/pkg/core/services"
)

// ListSlotsCmd creates the listSlots command
func ListSlotsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listSlots <year> <month>",
		Short: "List the mass and event slots of a month",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parsePeriodArgs(args)
			if err != nil {
				return err
			}

			result, err := services.ListSlots(app.Cfg, app.Logger, year, month)
			if err != nil {
				return err
			}

			fmt.Printf("\nSlots for %s:\n\n", result.Period.Key())
			for _, s := range result.Slots {
				label := s.Label
				if label == "" {
					label = string(s.Type)
				}
				fmt.Printf("  %s  %s  %-30s staff %2d-%-2d %s%s%s\n",
					s.Date.Format("2006-01-02 Mon"), s.Time, label, s.MinStaff, s.MaxStaff, colorDim, s.EventKey, colorReset)
			}
			fmt.Printf("\n%d slots, %d to %d seats\n\n", len(result.Slots), result.MinStaff, result.MaxStaff)

			return nil
		},
	}
}
