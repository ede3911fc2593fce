package cascade

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cascade-run/cascade/core"
)

// ParseDuration accepts either a raw millisecond count or a suffixed string
// ("5s", "30s", "5m", "24h", "250ms") and returns the equivalent
// time.Duration. Any other shape is a malformed-duration error.
//
// Within this package it is called by LoadOptions for the string durations
// of an options file; New and the tier-timeout lookups work on
// time.Duration values directly. Results are not cached.
func ParseDuration(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case time.Duration:
		if v < 0 {
			return 0, malformedDuration(fmt.Sprintf("%v", value))
		}
		return v, nil
	case int:
		return parseMillis(int64(v), value)
	case int64:
		return parseMillis(v, value)
	case string:
		return parseDurationString(v)
	default:
		return 0, malformedDuration(fmt.Sprintf("%v", value))
	}
}

func parseMillis(ms int64, original interface{}) (time.Duration, error) {
	if ms < 0 {
		return 0, malformedDuration(fmt.Sprintf("%v", original))
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// parseDurationString parses Ns, Nm, Nh, Nms where N is a non-negative
// integer. Go's strconv handles the digit scanning; the suffix is matched
// longest-first so "ms" is not mistaken for "m" followed by a stray "s".
func parseDurationString(s string) (time.Duration, error) {
	var suffix string
	var unit time.Duration
	switch {
	case strings.HasSuffix(s, "ms"):
		suffix, unit = "ms", time.Millisecond
	case strings.HasSuffix(s, "s"):
		suffix, unit = "s", time.Second
	case strings.HasSuffix(s, "m"):
		suffix, unit = "m", time.Minute
	case strings.HasSuffix(s, "h"):
		suffix, unit = "h", time.Hour
	default:
		return 0, malformedDuration(s)
	}

	numPart := strings.TrimSuffix(s, suffix)
	if numPart == "" {
		return 0, malformedDuration(s)
	}
	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil || n < 0 {
		return 0, malformedDuration(s)
	}
	return time.Duration(n) * unit, nil
}

func malformedDuration(value string) error {
	return &core.FrameworkError{
		Op:      "cascade.ParseDuration",
		Kind:    "malformed-duration",
		Message: fmt.Sprintf("malformed duration %q: expected an integer millisecond count or a suffixed string (Ns, Nm, Nh, Nms)", value),
	}
}
