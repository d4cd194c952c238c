package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// parsePeriodArgs reads "<year> <month>" or a single "YYYY-MM"
func parsePeriodArgs(args []string) (int, int, error) {
	if len(args) == 1 {
		year, month, ok := strings.Cut(args[0], "-")
		if !ok {
			return 0, 0, fmt.Errorf("period must be YYYY-MM or <year> <month>, got: %s", args[0])
		}
		args = []string{year, month}
	}
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("expected <year> <month>, got %d arguments", len(args))
	}

	year, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("year must be a number, got: %s", args[0])
	}
	month, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("month must be a number, got: %s", args[1])
	}
	return year, month, nil
}

// parseDate reads a civil date in YYYY-MM-DD form
func parseDate(s string) (time.Time, error) {
	date, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD, got: %s", s)
	}
	return date, nil
}

// parseClock reads a wall-clock time and returns it as HH:MM
func parseClock(s string) (string, error) {
	clock, err := time.Parse(model.TimeLayout, s)
	if err != nil {
		return "", fmt.Errorf("time must be HH:MM, got: %s", s)
	}
	return clock.Format(model.TimeLayout), nil
}
