package services

import "math"

// pausePenalty is subtracted from the raw work ratio once per pause.
const pausePenalty = 5

// FocusScore maps a session's work/pause breakdown to a score in [0, 100].
// The raw score is the percentage of elapsed time spent working; each pause
// costs a flat penalty. A session with no elapsed time at all scores 100.
func FocusScore(totalWorkSeconds, totalPauseSeconds, pauseCount int) int {
	raw := 100.0

	denom := totalWorkSeconds + totalPauseSeconds
	if denom > 0 {
		raw = 100 * float64(totalWorkSeconds) / float64(denom)
	}

	score := raw - float64(pausePenalty*pauseCount)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return int(math.Round(score))
}
