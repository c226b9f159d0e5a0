package request

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxHistoryLimit caps the number of history entries returned at once.
const MaxHistoryLimit = 366

// ParseLimit parses an optional positive limit query parameter. Empty
// returns def; values above max are clamped.
func ParseLimit(param string, def, max int) (int, error) {
	param = strings.TrimSpace(param)
	if param == "" {
		return def, nil
	}
	n, err := strconv.Atoi(param)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	if max > 0 && n > max {
		n = max
	}
	return n, nil
}

// ParseTimestamp parses an RFC3339 timestamp or a YYYY-MM-DD date in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC3339 timestamp or YYYY-MM-DD date")
	}
	return t, nil
}
