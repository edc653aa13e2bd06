package reconstruct

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/railcar-trips/internal/domain"
)

// ParseOffset parses a fixed UTC offset of the form "±HH:MM" (or "±HH") into
// a signed duration. "-05:00" yields -5h, "+05:30" yields 5h30m.
func ParseOffset(offset string) (time.Duration, error) {
	s := strings.TrimSpace(offset)
	if len(s) < 2 || (s[0] != '+' && s[0] != '-') {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidOffset, offset)
	}
	sign := time.Duration(1)
	if s[0] == '-' {
		sign = -1
	}

	hh, mm, hasMinutes := strings.Cut(s[1:], ":")
	hours, err := parseOffsetField(hh, 23)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidOffset, offset)
	}
	minutes := 0
	if hasMinutes {
		if minutes, err = parseOffsetField(mm, 59); err != nil {
			return 0, fmt.Errorf("%w: %q", domain.ErrInvalidOffset, offset)
		}
	}

	return sign * (time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute), nil
}

// parseOffsetField parses a two-digit unsigned field no greater than max.
func parseOffsetField(s string, max int) (int, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("want two digits, got %q", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > max {
		return 0, fmt.Errorf("out of range: %q", s)
	}
	return n, nil
}

// ToUniversal converts a wall-clock time observed at a location with the given
// fixed offset to UTC: universal = local - offset.
// Only the wall-clock fields of local are used; its Location is ignored.
func ToUniversal(local time.Time, offset string) (time.Time, error) {
	d, err := ParseOffset(offset)
	if err != nil {
		return time.Time{}, err
	}
	wall := time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), time.UTC)
	return wall.Add(-d), nil
}
