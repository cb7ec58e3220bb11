package spaced_repetition

import (
	"strings"
	"time"

	"github.com/example/studycore/internal/apperr"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// StartOfDay returns midnight of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysBetween counts calendar days from a to b in loc. It is negative when b is before a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, apperr.InvalidInput("invalid date %q, use YYYY-MM-DD", s)
	}
	return t, nil
}

// ReviewDates expands a start date and interval set into concrete review days
func ReviewDates(start time.Time, intervals []int) []time.Time {
	dates := make([]time.Time, 0, len(intervals))
	for _, days := range intervals {
		dates = append(dates, start.AddDate(0, 0, days))
	}
	return dates
}
