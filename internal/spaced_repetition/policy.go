package spaced_repetition

import "time"

// Confidence is the 1-5 self assessment given after an explain session
type Confidence int

const (
	ConfidenceLost       Confidence = 1
	ConfidenceStruggling Confidence = 2
	ConfidenceOkay       Confidence = 3
	ConfidenceGood       Confidence = 4
	ConfidenceMastered   Confidence = 5
)

// DefaultOffsetDays is used for a missing or out-of-range confidence
const DefaultOffsetDays = 3

// Policy maps a confidence score to the number of days until the next review
type Policy struct {
	Offsets       map[Confidence]int
	DefaultOffset int
}

// NewPolicy returns the standard confidence policy
func NewPolicy() *Policy {
	return &Policy{
		Offsets: map[Confidence]int{
			ConfidenceLost:       1,
			ConfidenceStruggling: 2,
			ConfidenceOkay:       3,
			ConfidenceGood:       7,
			ConfidenceMastered:   14,
		},
		DefaultOffset: DefaultOffsetDays,
	}
}

var defaultPolicy = NewPolicy()

// IntervalDays returns the day offset for confidence. Nil or unknown scores
// fall back to the default offset.
func (p *Policy) IntervalDays(confidence *int) int {
	if confidence == nil {
		return p.DefaultOffset
	}
	if days, ok := p.Offsets[Confidence(*confidence)]; ok {
		return days
	}
	return p.DefaultOffset
}

// NextReviewDate returns the start of the review day, in loc, counted from today
func (p *Policy) NextReviewDate(today time.Time, loc *time.Location, confidence *int) time.Time {
	return StartOfDay(today, loc).AddDate(0, 0, p.IntervalDays(confidence))
}

// IntervalForConfidence applies the standard policy
func IntervalForConfidence(confidence *int) int {
	return defaultPolicy.IntervalDays(confidence)
}

// ValidConfidence reports whether c is within 1-5
func ValidConfidence(c int) bool {
	return c >= int(ConfidenceLost) && c <= int(ConfidenceMastered)
}
