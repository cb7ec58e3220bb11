package spaced_repetition

import (
	"strconv"
	"strings"

	"github.com/example/studycore/internal/apperr"
	"github.com/example/studycore/pkg/models"
)

// DefaultIntervalSet is attached to schedules created by the upsert engine
var DefaultIntervalSet = models.IntervalSet{1, 3, 7, 14}

// ParseIntervals parses a comma separated list such as "1,3,7,21"
func ParseIntervals(s string) (models.IntervalSet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, apperr.InvalidInput("intervals must not be empty")
	}
	parts := strings.Split(s, ",")
	out := make(models.IntervalSet, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, apperr.InvalidInput("invalid interval %q", strings.TrimSpace(p))
		}
		out = append(out, n)
	}
	if err := ValidateIntervals(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateIntervals rejects empty sets and non-positive offsets
func ValidateIntervals(intervals []int) error {
	if len(intervals) == 0 {
		return apperr.InvalidInput("intervals must not be empty")
	}
	for _, n := range intervals {
		if n <= 0 {
			return apperr.InvalidInput("intervals must be positive numbers, got %d", n)
		}
	}
	return nil
}
