package availability

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// ParseEventDateTime parses a "YYYY-MM-DD_HH:MM" (or 'T' / space separated) datetime key
func ParseEventDateTime(s string) (time.Time, string, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(model.DateLayout)+2 {
		return time.Time{}, "", fmt.Errorf("datetime %q too short", s)
	}

	datePart := s[:len(model.DateLayout)]
	sep := s[len(model.DateLayout)]
	if sep != '_' && sep != 'T' && sep != ' ' {
		return time.Time{}, "", fmt.Errorf("datetime %q has unexpected separator %q", s, sep)
	}

	date, err := time.Parse(model.DateLayout, datePart)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid date in %q: %w", s, err)
	}

	clock, ok := NormalizeClock(s[len(model.DateLayout)+1:])
	if !ok {
		return time.Time{}, "", fmt.Errorf("invalid time in %q", s)
	}

	return date, clock, nil
}

var clockPattern = regexp.MustCompile(`^(\d{1,2})\s*(?:h|:)\s*(\d{2})?\s*(?:min)?$`)

// NormalizeClock converts survey time spellings to "HH:MM".
//
// Examples:
//   - "8h" -> "08:00"
//   - "19h30" -> "19:30"
//   - "10:00" -> "10:00"
func NormalizeClock(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return "", false
	}

	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil || minute > 59 {
			return "", false
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
