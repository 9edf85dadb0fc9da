package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taskflow-backend/internal/models"
)

const defaultSplitReason = "TASK_SWITCH"

// SessionStore is the persistence collaborator for timer sessions. GetActive
// returns pgx.ErrNoRows when the user has no active session; Create is an
// atomic check-and-create backed by a unique partial index on
// (user_id WHERE ended_at IS NULL), so a concurrent duplicate start fails
// with a unique violation instead of producing a second active session.
type SessionStore interface {
	Create(ctx context.Context, sess *models.TimerSession) error
	GetActive(ctx context.Context, userID uuid.UUID) (*models.TimerSession, error)
	UpdatePauseState(ctx context.Context, sess *models.TimerSession) error
	Finish(ctx context.Context, sess *models.TimerSession) error
}

// MetricsStore applies atomic increments to a user's daily metrics row.
type MetricsStore interface {
	Apply(ctx context.Context, userID uuid.UUID, date time.Time, delta models.MetricsDelta) error
}

// InsightDispatcher enqueues the best-effort learn-from-session job. It must
// not block on the downstream consumer.
type InsightDispatcher interface {
	Dispatch(ctx context.Context, job models.InsightJob) error
}

// TimerService owns the lifecycle of a user's active session: at most one
// session per user is unended at any time, pause time is accounted
// monotonically, and a completed work session feeds the day's metrics
// exactly once.
type TimerService struct {
	sessions SessionStore
	metrics  MetricsStore
	insights InsightDispatcher
	now      func() time.Time
}

func NewTimerService(sessions SessionStore, metrics MetricsStore, insights InsightDispatcher) *TimerService {
	return &TimerService{
		sessions: sessions,
		metrics:  metrics,
		insights: insights,
		now:      time.Now,
	}
}

// Start creates a new running session for the user. It fails with a
// ConflictError when an active session already exists, whether that is
// detected up front or by the store's unique constraint during a race.
func (s *TimerService) Start(ctx context.Context, userID uuid.UUID, taskID *uuid.UUID, sessType models.SessionType) (*models.TimerSession, error) {
	if sessType == "" {
		sessType = models.SessionWork
	}
	if !sessType.Valid() {
		return nil, &ValidationError{Fields: map[string]string{
			"type": fmt.Sprintf("unknown session type %q", sessType),
		}}
	}

	_, err := s.sessions.GetActive(ctx, userID)
	if err == nil {
		return nil, &ConflictError{Message: "An active session already exists"}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	sess := &models.TimerSession{
		UserID:    userID,
		TaskID:    taskID,
		Type:      sessType,
		StartedAt: s.now(),
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Message: "An active session already exists"}
		}
		return nil, err
	}

	return sess, nil
}

// Pause marks the active session as paused as of now. Pausing an
// already-paused session is an InvalidStateError.
func (s *TimerService) Pause(ctx context.Context, userID uuid.UUID) (*models.TimerSession, error) {
	sess, err := s.requireActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	if sess.State() == models.StatePaused {
		return nil, &InvalidStateError{Message: "Session is already paused"}
	}

	pauseStart := s.now()
	sess.CurrentPauseStart = &pauseStart
	sess.PauseCount++

	if err := s.sessions.UpdatePauseState(ctx, sess); err != nil {
		return nil, err
	}

	return sess, nil
}

// Resume closes the open pause interval, folding its length into the
// session's total pause time. Resuming a running session is an
// InvalidStateError.
func (s *TimerService) Resume(ctx context.Context, userID uuid.UUID) (*models.TimerSession, error) {
	sess, err := s.requireActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	if sess.State() != models.StatePaused {
		return nil, &InvalidStateError{Message: "Session is not paused"}
	}

	sess.TotalPauseSeconds += PauseIntervalSeconds(*sess.CurrentPauseStart, s.now())
	sess.CurrentPauseStart = nil

	if err := s.sessions.UpdatePauseState(ctx, sess); err != nil {
		return nil, err
	}

	return sess, nil
}

// Stop ends the active session. For a completed work or continuous session
// the day's metrics are updated on the critical path; the learn-from-session
// hook runs afterwards and its failure is only logged.
func (s *TimerService) Stop(ctx context.Context, userID uuid.UUID, wasCompleted bool) (*models.TimerSession, error) {
	return s.stopActive(ctx, userID, wasCompleted, nil)
}

// SwitchTask ends the current session as completed with a split reason and
// starts a replacement in the same call. The old session's metrics update
// runs exactly once; if the new session cannot be started the switch fails
// with the old session already stopped and accounted for, so the user is
// never left with an unaccounted active session.
func (s *TimerService) SwitchTask(ctx context.Context, userID, newTaskID uuid.UUID, sessType models.SessionType, splitReason string) (*models.SwitchResult, error) {
	if splitReason == "" {
		splitReason = defaultSplitReason
	}

	oldSess, err := s.stopActive(ctx, userID, true, &splitReason)
	if err != nil {
		return nil, err
	}

	newSess, err := s.Start(ctx, userID, &newTaskID, sessType)
	if err != nil {
		return nil, fmt.Errorf("switching task after ending session %s: %w", oldSess.ID, err)
	}

	return &models.SwitchResult{OldSession: oldSess, NewSession: newSess}, nil
}

// GetActive returns the active session with its elapsed work seconds, or
// nil when the user has no active session. It never mutates state and is
// safe to poll.
func (s *TimerService) GetActive(ctx context.Context, userID uuid.UUID) (*models.ActiveSessionView, error) {
	sess, err := s.sessions.GetActive(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &models.ActiveSessionView{
		Session:        sess,
		ElapsedSeconds: ElapsedSeconds(sess.StartedAt, s.now(), sess.TotalPauseSeconds, sess.CurrentPauseStart),
		IsPaused:       sess.State() == models.StatePaused,
	}, nil
}

func (s *TimerService) stopActive(ctx context.Context, userID uuid.UUID, wasCompleted bool, splitReason *string) (*models.TimerSession, error) {
	sess, err := s.requireActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	// A session stopped mid-pause keeps its pause accounting: the open
	// interval is folded in before the duration is fixed.
	if sess.CurrentPauseStart != nil {
		sess.TotalPauseSeconds += PauseIntervalSeconds(*sess.CurrentPauseStart, now)
		sess.CurrentPauseStart = nil
	}

	sess.EndedAt = &now
	sess.DurationMinutes = durationMinutes(sess.StartedAt, now, sess.TotalPauseSeconds)
	sess.WasCompleted = wasCompleted
	sess.SplitReason = splitReason

	if err := s.sessions.Finish(ctx, sess); err != nil {
		return nil, err
	}

	if wasCompleted && sess.Type.CountsTowardMetrics() {
		score, err := s.recordCompletion(ctx, sess, now)
		if err != nil {
			return nil, err
		}

		s.dispatchInsight(ctx, sess, score)
	}

	return sess, nil
}

// recordCompletion applies the completed session to the day of its end time.
// This write is on the critical path: a failure here propagates to the
// caller of Stop.
func (s *TimerService) recordCompletion(ctx context.Context, sess *models.TimerSession, endedAt time.Time) (int, error) {
	workSeconds := sess.DurationMinutes*60 - sess.TotalPauseSeconds
	if workSeconds < 0 {
		workSeconds = 0
	}

	score := FocusScore(workSeconds, sess.TotalPauseSeconds, sess.PauseCount)

	delta := models.MetricsDelta{
		FocusMinutes:    sess.DurationMinutes,
		FocusScoreTotal: score,
		FocusSessions:   1,
	}
	if sess.Type == models.SessionWork {
		delta.Pomodoros = 1
	}

	if err := s.metrics.Apply(ctx, sess.UserID, dateOf(endedAt), delta); err != nil {
		return 0, fmt.Errorf("recording metrics for session %s: %w", sess.ID, err)
	}

	return score, nil
}

// dispatchInsight hands the completed session to the learn-from-session
// queue. Best effort: failures are logged, never surfaced.
func (s *TimerService) dispatchInsight(ctx context.Context, sess *models.TimerSession, score int) {
	if s.insights == nil {
		return
	}

	job := models.InsightJob{
		SessionID:         sess.ID,
		UserID:            sess.UserID,
		Type:              sess.Type,
		DurationMinutes:   sess.DurationMinutes,
		TotalPauseSeconds: sess.TotalPauseSeconds,
		PauseCount:        sess.PauseCount,
		FocusScore:        score,
	}

	if err := s.insights.Dispatch(ctx, job); err != nil {
		log.Printf("learn-from-session dispatch failed for session %s: %v", sess.ID, err)
	}
}

func (s *TimerService) requireActive(ctx context.Context, userID uuid.UUID) (*models.TimerSession, error) {
	sess, err := s.sessions.GetActive(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Message: "No active session"}
	}
	if err != nil {
		return nil, err
	}

	return sess, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
