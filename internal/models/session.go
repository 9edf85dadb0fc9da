package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionType string

const (
	SessionWork       SessionType = "WORK"
	SessionShortBreak SessionType = "SHORT_BREAK"
	SessionLongBreak  SessionType = "LONG_BREAK"
	SessionContinuous SessionType = "CONTINUOUS"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionWork, SessionShortBreak, SessionLongBreak, SessionContinuous:
		return true
	}
	return false
}

// CountsTowardMetrics reports whether a completed session of this type
// contributes to the daily metrics accumulators.
func (t SessionType) CountsTowardMetrics() bool {
	return t == SessionWork || t == SessionContinuous
}

// SessionState is the derived state of an active session. A session is
// either running or paused; there is no third option, so transitions
// are validated against this value rather than against raw field combinations.
type SessionState string

const (
	StateRunning SessionState = "RUNNING"
	StatePaused  SessionState = "PAUSED"
)

type TimerSession struct {
	ID                uuid.UUID   `json:"id"`
	UserID            uuid.UUID   `json:"user_id"`
	TaskID            *uuid.UUID  `json:"task_id,omitempty"`
	Type              SessionType `json:"type"`
	StartedAt         time.Time   `json:"started_at"`
	EndedAt           *time.Time  `json:"ended_at,omitempty"`
	DurationMinutes   int         `json:"duration_minutes"`
	TotalPauseSeconds int         `json:"total_pause_seconds"`
	PauseCount        int         `json:"pause_count"`
	CurrentPauseStart *time.Time  `json:"current_pause_start,omitempty"`
	SplitReason       *string     `json:"split_reason,omitempty"`
	WasCompleted      bool        `json:"was_completed"`
	CreatedAt         time.Time   `json:"created_at"`
}

// Active reports whether the session has not ended yet.
func (s *TimerSession) Active() bool {
	return s.EndedAt == nil
}

// State derives the running/paused state of an active session.
func (s *TimerSession) State() SessionState {
	if s.CurrentPauseStart != nil {
		return StatePaused
	}
	return StateRunning
}

// ActiveSessionView is the polling view of an active session. ElapsedSeconds
// is computed at read time from wall-clock time and the recorded pauses.
type ActiveSessionView struct {
	Session        *TimerSession `json:"session"`
	ElapsedSeconds int           `json:"elapsed_seconds"`
	IsPaused       bool          `json:"is_paused"`
}

// SwitchResult is returned by a task switch: the old session ended with a
// split reason and the replacement session that is now active.
type SwitchResult struct {
	OldSession *TimerSession `json:"old_session"`
	NewSession *TimerSession `json:"new_session"`
}

// SessionInsight is a short AI-generated note derived from a completed
// session, produced by the best-effort learn-from-session hook.
type SessionInsight struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	SessionID uuid.UUID `json:"session_id"`
	Insight   string    `json:"insight"`
	CreatedAt time.Time `json:"created_at"`
}

// InsightJob is the queue payload for the learn-from-session worker.
type InsightJob struct {
	SessionID         uuid.UUID   `json:"session_id"`
	UserID            uuid.UUID   `json:"user_id"`
	Type              SessionType `json:"type"`
	DurationMinutes   int         `json:"duration_minutes"`
	TotalPauseSeconds int         `json:"total_pause_seconds"`
	PauseCount        int         `json:"pause_count"`
	FocusScore        int         `json:"focus_score"`
	RetryCount        int         `json:"retry_count"`
}
