package helpers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ojtetr/tracker/internal/pkg/logger"
)

// ParseLifetime reads a token or cache lifetime. Besides Go durations ("36h") it takes
// whole days ("1d", "7d") and bare seconds ("3600"). Zero and negative values are rejected.
func ParseLifetime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty lifetime")
	}

	var d time.Duration
	switch {
	case strings.HasSuffix(s, "d"):
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid lifetime %q: %w", s, err)
		}
		d = time.Duration(days) * 24 * time.Hour
	default:
		if secs, err := strconv.Atoi(s); err == nil {
			d = time.Duration(secs) * time.Second
			break
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid lifetime %q: %w", s, err)
		}
		d = parsed
	}

	if d <= 0 {
		return 0, fmt.Errorf("lifetime %q must be positive", s)
	}
	return d, nil
}

// ParseDuration is ParseLifetime with a fallback for unset or invalid values
func ParseDuration(s string, fallback time.Duration) time.Duration {
	d, err := ParseLifetime(s)
	if err != nil {
		if strings.TrimSpace(s) != "" {
			logger.Warn().Err(err).Dur("fallback", fallback).Msg("Invalid lifetime setting, using fallback")
		}
		return fallback
	}
	return d
}
