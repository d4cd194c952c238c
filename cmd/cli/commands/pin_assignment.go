package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/parish-roster/pkg/core/services"
)

// PinAssignmentCmd creates the pinAssignment command
func PinAssignmentCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pinAssignment <date> <time> <position> [volunteer_id]",
		Short: "Pin a volunteer to a seat (omit the volunteer to pin a vacancy)",
		Long: `Pin a volunteer to a seat of a slot, e.g. pinAssignment 2025-11-02 08:00 1 vol-42.
Whatever held the seat is superseded and later commits leave the pin in place.
Without a volunteer the seat is pinned as a deliberate vacancy.`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(args[0])
			if err != nil {
				return err
			}
			clock, err := parseClock(args[1])
			if err != nil {
				return err
			}
			position, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("position must be a number, got: %s", args[2])
			}
			var volunteerID string
			if len(args) > 3 {
				volunteerID = args[3]
			}

			app.Logger.Debug("pinAssignment command",
				zap.String("date", args[0]),
				zap.String("time", clock),
				zap.Int("position", position),
				zap.String("volunteer_id", volunteerID))

			result, err := services.PinAssignment(app.Ctx, app.Database, app.Previews, app.Cfg, app.Logger, services.PinRequest{
				Date:        date,
				Time:        clock,
				Position:    position,
				VolunteerID: volunteerID,
			})
			if err != nil {
				return err
			}

			a := result.Assignment
			fmt.Printf("\n✓ Seat %s #%d pinned", a.SlotID, a.Position)
			if a.IsVacancy() {
				fmt.Printf(" as vacant\n")
			} else {
				fmt.Printf(" to %s\n", displayName(volunteerNames(app), a.VolunteerID))
			}
			for _, r := range result.Replaced {
				who := "vacancy"
				if !r.IsVacancy() {
					who = r.VolunteerID
				}
				fmt.Printf("  %sreplaced %s (%s, %s)%s\n", colorDim, r.ID, who, r.Status, colorReset)
			}
			fmt.Println()

			return nil
		},
	}
}
