package notify

import (
	"fmt"
	"strings"

	"github.com/example/studycore/internal/spaced_repetition"
)

// DigestSubject is a one-line summary of a due set
func DigestSubject(due spaced_repetition.DueSet) string {
	switch {
	case due.TotalDue == 1:
		return "1 topic to review today"
	case due.TotalDue > 1:
		return fmt.Sprintf("%d topics to review today", due.TotalDue)
	default:
		return "Topics worth revisiting"
	}
}

// FormatDigest renders a due set as plain text
func FormatDigest(due spaced_repetition.DueSet) string {
	var b strings.Builder
	if len(due.DueSchedules) > 0 {
		b.WriteString("Due for review:\n")
		for _, d := range due.DueSchedules {
			switch {
			case d.DaysOverdue == 1:
				fmt.Fprintf(&b, "- %s (1 day overdue)\n", d.Topic)
			case d.DaysOverdue > 1:
				fmt.Fprintf(&b, "- %s (%d days overdue)\n", d.Topic, d.DaysOverdue)
			default:
				fmt.Fprintf(&b, "- %s\n", d.Topic)
			}
		}
	}
	if len(due.SuggestedTopics) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Worth revisiting:\n")
		for _, s := range due.SuggestedTopics {
			fmt.Fprintf(&b, "- %s: %s (%d days ago)\n", s.Title, s.Reason, s.DaysSince)
		}
	}
	if b.Len() == 0 {
		return "Nothing due today.\n"
	}
	return b.String()
}

// HasContent reports whether a due set is worth a reminder
func HasContent(due spaced_repetition.DueSet) bool {
	return len(due.DueSchedules) > 0 || len(due.SuggestedTopics) > 0
}
