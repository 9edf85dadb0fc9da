package services

import "time"

// Session clock arithmetic. These helpers are pure: they read no state and
// take every timestamp as an argument, so elapsed-time math is always
// anchored to the moment of the call.

// ElapsedSeconds returns the whole seconds of work time elapsed for a
// session. Recorded pause time is subtracted, and a currently-open pause
// freezes the clock at the instant the pause began. The result never goes
// below zero, even when clock skew produces a negative raw value.
func ElapsedSeconds(startedAt, now time.Time, totalPauseSeconds int, currentPauseStart *time.Time) int {
	ref := now
	if currentPauseStart != nil {
		ref = *currentPauseStart
	}

	elapsed := int(ref.Sub(startedAt)/time.Second) - totalPauseSeconds
	if elapsed < 0 {
		return 0
	}

	return elapsed
}

// PauseIntervalSeconds returns the whole seconds between a pause start and
// the resume time, clamped at zero.
func PauseIntervalSeconds(pauseStart, resumeTime time.Time) int {
	interval := int(resumeTime.Sub(pauseStart) / time.Second)
	if interval < 0 {
		return 0
	}

	return interval
}

// durationMinutes converts a wall-clock span and the accumulated pause time
// into the session's recorded duration: whole minutes of the span, rounded,
// minus whole minutes of pause, rounded. Durations are fixed in minutes at
// the moment a session ends and never re-derived from seconds afterwards.
func durationMinutes(startedAt, endedAt time.Time, totalPauseSeconds int) int {
	wall := roundDiv(int(endedAt.Sub(startedAt)/time.Millisecond), 60000)
	paused := roundDiv(totalPauseSeconds, 60)

	minutes := wall - paused
	if minutes < 0 {
		return 0
	}

	return minutes
}

// roundDiv divides a by b, rounding to the nearest integer.
func roundDiv(a, b int) int {
	return (a + b/2) / b
}

// dateOf truncates a timestamp to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
