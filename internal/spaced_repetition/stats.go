package spaced_repetition

// AverageConfidence is the truncated integer mean of the non-nil confidences,
// or 0 when none is set.
func AverageConfidence(confidences []*int) int {
	sum, n := 0, 0
	for _, c := range confidences {
		if c == nil {
			continue
		}
		sum += *c
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / n
}
