package commands

import (
	"fmt"
	"strings"

	"github.com/jakechorley/parish-roster/pkg/core/model"
	"github.com/jakechorley/parish-roster/pkg/core/services"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

// printRoster prints a generation result slot by slot
func printRoster(result *services.GenerateRosterResult, names map[string]string) {
	bySlot := make(map[string][]model.Assignment)
	for _, a := range result.Assignments {
		bySlot[a.SlotID] = append(bySlot[a.SlotID], a)
	}

	fmt.Printf("\nRoster %s (%s, run %s)\n", result.Period.Key(), result.Mode, result.RunID)
	if result.Draft {
		fmt.Printf("%sQuestionnaire still open: every slot is low-confidence%s\n", colorYellow, colorReset)
	}
	fmt.Println()

	for _, slot := range result.SlotOutcomes {
		marker := colorGreen + "✓" + colorReset
		switch {
		case slot.Filled < slot.MinStaff:
			marker = colorRed + "✗" + colorReset
		case slot.LowConfidence:
			marker = colorYellow + "?" + colorReset
		}
		fmt.Printf("%s %-32s %2d/%-2d (max %2d)  confidence %.2f\n",
			marker, slot.SlotID, slot.Filled, slot.MinStaff, slot.MaxStaff, slot.Confidence)

		for _, a := range bySlot[slot.SlotID] {
			switch {
			case a.IsVacancy():
				fmt.Printf("    %2d. %s(vacant)%s\n", a.Position, colorDim, colorReset)
			case a.IsPinned():
				fmt.Printf("    %2d. %s %s(pinned)%s\n", a.Position, displayName(names, a.VolunteerID), colorDim, colorReset)
			default:
				fmt.Printf("    %2d. %s\n", a.Position, displayName(names, a.VolunteerID))
			}
		}
		if len(slot.Backups) > 0 {
			backups := make([]string, len(slot.Backups))
			for i, id := range slot.Backups {
				backups[i] = displayName(names, id)
			}
			fmt.Printf("    %sbackups:%s %s\n", colorDim, colorReset, strings.Join(backups, ", "))
		}
	}

	q := result.Quality
	fmt.Printf("\nSlots: %d  Assignments: %d  Volunteers: %d  Vacancies: %d  Low confidence: %d  Pairs: %d  Fill rate: %.0f%%\n",
		q.TotalSlots, q.TotalAssignments, q.UniqueVolunteers, q.Vacancies, q.LowConfidenceSlots, q.PairsPlaced, q.AverageFillRate*100)

	if result.Merge != nil {
		m := result.Merge
		fmt.Printf("Committed: %d inserted, %d updated, %d unchanged, %d superseded\n",
			m.Inserted, m.Updated, m.Skipped, m.Superseded)
	}

	printDiagnostics(result.Diagnostics)
	fmt.Println()
}

func printDiagnostics(d services.Diagnostics) {
	if d.Count() == 0 {
		return
	}

	fmt.Printf("\n%s⚠️  %d diagnostics:%s\n", colorYellow, d.Count(), colorReset)
	for _, w := range d.Normalization {
		fmt.Printf("  availability  %s\n", w)
	}
	for _, s := range d.SkippedRecords {
		fmt.Printf("  skipped       %s\n", s)
	}
	for _, s := range d.LowConfidence {
		fmt.Printf("  confidence    %s\n", s)
	}
	for _, v := range d.Validation {
		fmt.Printf("  validation    %s [%s]: %s\n", v.SlotID, v.CriterionName, v.Description)
	}
	for _, p := range d.IgnoredPins {
		fmt.Printf("  pin ignored   %s: %s\n", p.Assignment.ID, p.Reason)
	}
	for _, m := range d.Merge {
		fmt.Printf("  merge         %s\n", m)
	}
}

func displayName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return fmt.Sprintf("%s %s(%s)%s", name, colorDim, id, colorReset)
	}
	return id
}

// volunteerNames maps volunteer ID to display name for output
func volunteerNames(app *AppContext) map[string]string {
	names := make(map[string]string)
	volunteers, err := app.Database.GetVolunteers(app.Ctx)
	if err != nil {
		return names
	}
	for _, v := range volunteers {
		names[v.ID] = strings.TrimSpace(v.DisplayName)
	}
	return names
}
