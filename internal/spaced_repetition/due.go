package spaced_repetition

import (
	"sort"
	"time"

	"github.com/example/studycore/pkg/models"
)

const (
	StatusOverdue  = "overdue"
	StatusDueToday = "due_today"

	ReasonLowConfidence = "Low confidence - review recommended"
	ReasonLongTimeAgo   = "Long time since last review"
)

// Suggestion thresholds for topics without a schedule
const (
	LowConfidenceThreshold = 4
	LowConfidenceAfterDays = 3
	StaleAfterDays         = 7
)

// DueReview is a schedule whose review day is today or earlier
type DueReview struct {
	ScheduleID    string     `json:"schedule_id"`
	TopicID       *string    `json:"topic_id"`
	Topic         string     `json:"topic"`
	TopicExists   bool       `json:"topic_exists"`
	Confidence    int        `json:"confidence"`
	LastExplained *time.Time `json:"last_explained"`
	DueDate       string     `json:"due_date"`
	DaysOverdue   int        `json:"days_overdue"`
	Status        string     `json:"status"`
}

// Suggestion is an unscheduled topic worth revisiting
type Suggestion struct {
	TopicID    string `json:"topic_id"`
	Title      string `json:"title"`
	DaysSince  int    `json:"days_since"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`
}

// DueSet is the result of ResolveDue
type DueSet struct {
	DueSchedules    []DueReview  `json:"due_schedules"`
	SuggestedTopics []Suggestion `json:"topics_needing_review"`
	TotalDue        int          `json:"total_due"`
}

// ResolveDue splits a user's schedules and topics into the reviews due as of
// asOf (end of that day, in loc) and the unscheduled topics worth a nudge.
func ResolveDue(asOf time.Time, loc *time.Location, schedules []models.Schedule, topics []models.Topic) DueSet {
	if loc == nil {
		loc = time.UTC
	}
	cutoff := StartOfDay(asOf, loc).AddDate(0, 0, 1)

	byID := make(map[string]*models.Topic, len(topics))
	for i := range topics {
		byID[topics[i].ID] = &topics[i]
	}

	set := DueSet{
		DueSchedules:    []DueReview{},
		SuggestedTopics: []Suggestion{},
	}
	scheduled := make(map[string]bool, len(schedules))
	for _, s := range schedules {
		if s.TopicID != nil {
			scheduled[*s.TopicID] = true
		}
		if !s.NextReviewAt.Before(cutoff) {
			continue
		}

		overdue := DaysBetween(s.NextReviewAt, asOf, loc)
		if overdue < 0 {
			overdue = 0
		}
		review := DueReview{
			ScheduleID:  s.ID,
			TopicID:     s.TopicID,
			Topic:       s.Topic,
			DueDate:     s.NextReviewAt.In(loc).Format(DateLayout),
			DaysOverdue: overdue,
			Status:      StatusDueToday,
		}
		if overdue > 0 {
			review.Status = StatusOverdue
		}
		if s.TopicID != nil {
			if t, ok := byID[*s.TopicID]; ok {
				review.TopicExists = true
				review.Confidence = t.AvgConfidence
				review.LastExplained = t.LastExplained
			}
		}
		set.DueSchedules = append(set.DueSchedules, review)
	}
	sort.SliceStable(set.DueSchedules, func(i, j int) bool {
		return set.DueSchedules[i].DueDate < set.DueSchedules[j].DueDate
	})

	for _, t := range topics {
		// an existing commitment, due or future, takes precedence
		if scheduled[t.ID] || t.LastExplained == nil {
			continue
		}
		daysSince := int(asOf.Sub(*t.LastExplained) / (24 * time.Hour))
		if daysSince < 0 {
			daysSince = 0
		}
		lowConfidence := t.AvgConfidence < LowConfidenceThreshold && daysSince >= LowConfidenceAfterDays
		if !lowConfidence && daysSince < StaleAfterDays {
			continue
		}
		reason := ReasonLongTimeAgo
		if lowConfidence {
			reason = ReasonLowConfidence
		}
		set.SuggestedTopics = append(set.SuggestedTopics, Suggestion{
			TopicID:    t.ID,
			Title:      t.Title,
			DaysSince:  daysSince,
			Confidence: t.AvgConfidence,
			Reason:     reason,
		})
	}

	set.TotalDue = len(set.DueSchedules) + len(set.SuggestedTopics)
	return set
}
