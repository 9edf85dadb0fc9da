package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taskflow-backend/internal/models"
)

type fakeSessionStore struct {
	active    *models.TimerSession
	createErr error
	finished  []*models.TimerSession
}

func (f *fakeSessionStore) Create(ctx context.Context, sess *models.TimerSession) error {
	if f.createErr != nil {
		return f.createErr
	}
	sess.ID = uuid.New()
	f.active = sess
	return nil
}

func (f *fakeSessionStore) GetActive(ctx context.Context, userID uuid.UUID) (*models.TimerSession, error) {
	if f.active == nil {
		return nil, pgx.ErrNoRows
	}
	return f.active, nil
}

func (f *fakeSessionStore) UpdatePauseState(ctx context.Context, sess *models.TimerSession) error {
	return nil
}

func (f *fakeSessionStore) Finish(ctx context.Context, sess *models.TimerSession) error {
	f.finished = append(f.finished, sess)
	f.active = nil
	return nil
}

type fakeMetricsStore struct {
	applied []models.MetricsDelta
	dates   []time.Time
	err     error
}

func (f *fakeMetricsStore) Apply(ctx context.Context, userID uuid.UUID, date time.Time, delta models.MetricsDelta) error {
	if f.err != nil {
		return f.err
	}
	f.applied = append(f.applied, delta)
	f.dates = append(f.dates, date)
	return nil
}

type fakeDispatcher struct {
	jobs []models.InsightJob
	err  error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, job models.InsightJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func newTestTimer(store *fakeSessionStore, metrics *fakeMetricsStore, disp *fakeDispatcher) (*TimerService, *time.Time) {
	svc := NewTimerService(store, metrics, disp)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clock := &now
	svc.now = func() time.Time { return *clock }
	return svc, clock
}

func TestStart_DefaultsToWork(t *testing.T) {
	store := &fakeSessionStore{}
	svc, _ := newTestTimer(store, &fakeMetricsStore{}, &fakeDispatcher{})

	sess, err := svc.Start(context.Background(), uuid.New(), nil, "")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if sess.Type != models.SessionWork {
		t.Errorf("Expected WORK, got %s", sess.Type)
	}
}

func TestStart_UnknownTypeIsValidationError(t *testing.T) {
	svc, _ := newTestTimer(&fakeSessionStore{}, &fakeMetricsStore{}, &fakeDispatcher{})

	_, err := svc.Start(context.Background(), uuid.New(), nil, "NAP")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if vErr.Fields["type"] == "" {
		t.Error("Expected a field error for type")
	}
}

func TestStart_ActiveSessionConflicts(t *testing.T) {
	userID := uuid.New()
	store := &fakeSessionStore{active: &models.TimerSession{UserID: userID}}
	svc, _ := newTestTimer(store, &fakeMetricsStore{}, &fakeDispatcher{})

	_, err := svc.Start(context.Background(), userID, nil, models.SessionWork)
	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("Expected ConflictError, got %v", err)
	}
}

func TestStart_UniqueViolationConflicts(t *testing.T) {
	// Simulates the race where two starts pass the pre-check and the
	// partial unique index rejects the second insert.
	store := &fakeSessionStore{createErr: &pgconn.PgError{Code: "23505"}}
	svc, _ := newTestTimer(store, &fakeMetricsStore{}, &fakeDispatcher{})

	_, err := svc.Start(context.Background(), uuid.New(), nil, models.SessionWork)
	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("Expected ConflictError, got %v", err)
	}
}

func TestPauseResume_AccountsPauseTime(t *testing.T) {
	userID := uuid.New()
	store := &fakeSessionStore{}
	svc, clock := newTestTimer(store, &fakeMetricsStore{}, &fakeDispatcher{})

	if _, err := svc.Start(context.Background(), userID, nil, models.SessionWork); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	*clock = clock.Add(20 * time.Minute)
	sess, err := svc.Pause(context.Background(), userID)
	if err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if sess.PauseCount != 1 {
		t.Errorf("Expected pause count 1, got %d", sess.PauseCount)
	}
	if sess.CurrentPauseStart == nil {
		t.Fatal("Expected open pause interval")
	}

	// Elapsed time is frozen while paused.
	*clock = clock.Add(5 * time.Minute)
	view, err := svc.GetActive(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if !view.IsPaused {
		t.Error("Expected paused view")
	}
	if view.ElapsedSeconds != 1200 {
		t.Errorf("Expected 1200 elapsed seconds, got %d", view.ElapsedSeconds)
	}

	sess, err = svc.Resume(context.Background(), userID)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if sess.TotalPauseSeconds != 300 {
		t.Errorf("Expected 300 pause seconds, got %d", sess.TotalPauseSeconds)
	}
	if sess.CurrentPauseStart != nil {
		t.Error("Expected pause interval cleared")
	}
}

func TestPause_AlreadyPausedIsInvalidState(t *testing.T) {
	userID := uuid.New()
	store := &fakeSessionStore{}
	svc, _ := newTestTimer(store, &fakeMetricsStore{}, &fakeDispatcher{})

	svc.Start(context.Background(), userID, nil, models.SessionWork)
	if _, err := svc.Pause(context.Background(), userID); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}

	_, err := svc.Pause(context.Background(), userID)
	var isErr *InvalidStateError
	if !errors.As(err, &isErr) {
		t.Fatalf("Expected InvalidStateError, got %v", err)
	}
}

func TestResume_RunningSessionIsInvalidState(t *testing.T) {
	userID := uuid.New()
	store := &fakeSessionStore{}
	svc, _ := newTestTimer(store, &fakeMetricsStore{}, &fakeDispatcher{})

	svc.Start(context.Background(), userID, nil, models.SessionWork)

	_, err := svc.Resume(context.Background(), userID)
	var isErr *InvalidStateError
	if !errors.As(err, &isErr) {
		t.Fatalf("Expected InvalidStateError, got %v", err)
	}
}

func TestStop_NoActiveSessionIsNotFound(t *testing.T) {
	svc, _ := newTestTimer(&fakeSessionStore{}, &fakeMetricsStore{}, &fakeDispatcher{})

	_, err := svc.Stop(context.Background(), uuid.New(), true)
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestStop_CompletedWorkSessionRecordsMetrics(t *testing.T) {
	userID := uuid.New()
	store := &fakeSessionStore{}
	metrics := &fakeMetricsStore{}
	disp := &fakeDispatcher{}
	svc, clock := newTestTimer(store, metrics, disp)

	svc.Start(context.Background(), userID, nil, models.SessionWork)

	*clock = clock.Add(20 * time.Minute)
	svc.Pause(context.Background(), userID)
	*clock = clock.Add(time.Minute)
	svc.Resume(context.Background(), userID)
	*clock = clock.Add(9 * time.Minute)

	sess, err := svc.Stop(context.Background(), userID, true)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// 30 minutes of wall time minus one minute of pause.
	if sess.DurationMinutes != 29 {
		t.Errorf("Expected 29 minutes, got %d", sess.DurationMinutes)
	}
	if sess.TotalPauseSeconds != 60 {
		t.Errorf("Expected 60 pause seconds, got %d", sess.TotalPauseSeconds)
	}
	if !sess.WasCompleted {
		t.Error("Expected was_completed true")
	}

	if len(metrics.applied) != 1 {
		t.Fatalf("Expected 1 metrics delta, got %d", len(metrics.applied))
	}
	delta := metrics.applied[0]
	if delta.Pomodoros != 1 {
		t.Errorf("Expected 1 pomodoro, got %d", delta.Pomodoros)
	}
	if delta.FocusMinutes != 29 {
		t.Errorf("Expected 29 focus minutes, got %d", delta.FocusMinutes)
	}
	if delta.FocusSessions != 1 {
		t.Errorf("Expected 1 focus session, got %d", delta.FocusSessions)
	}
	// 1680 work seconds against 60 paused with one pause.
	if delta.FocusScoreTotal != 92 {
		t.Errorf("Expected focus score 92, got %d", delta.FocusScoreTotal)
	}

	wantDate := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !metrics.dates[0].Equal(wantDate) {
		t.Errorf("Expected metrics date %v, got %v", wantDate, metrics.dates[0])
	}

	if len(disp.jobs) != 1 {
		t.Fatalf("Expected 1 insight job, got %d", len(disp.jobs))
	}
	if disp.jobs[0].FocusScore != 92 {
		t.Errorf("Expected job focus score 92, got %d", disp.jobs[0].FocusScore)
	}
}

func TestStop_WhilePausedFoldsOpenInterval(t *testing.T) {
	userID := uuid.New()
	store := &fakeSessionStore{}
	metrics := &fakeMetricsStore{}
	svc, clock := newTestTimer(store, metrics, &fakeDispatcher{})

	svc.Start(context.Background(), userID, nil, models.SessionWork)
	*clock = clock.Add(10 * time.Minute)
	svc.Pause(context.Background(), userID)
	*clock = clock.Add(2 * time.Minute)

	sess, err := svc.Stop(context.Background(), userID, true)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if sess.TotalPauseSeconds != 120 {
		t.Errorf("Expected 120 pause seconds, got %d", sess.TotalPauseSeconds)
	}
	if sess.CurrentPauseStart != nil {
		t.Error("Expected pause interval closed")
	}
	if sess.DurationMinutes != 10 {
		t.Errorf("Expected 10 minutes, got %d", sess.DurationMinutes)
	}
}

func TestStop_AbandonedSessionSkipsMetrics(t *testing.T) {
	userID := uuid.New()
	metrics := &fakeMetricsStore{}
	disp := &fakeDispatcher{}
	svc, clock := newTestTimer(&fakeSessionStore{}, metrics, disp)

	svc.Start(context.Background(), userID, nil, models.SessionWork)
	*clock = clock.Add(5 * time.Minute)

	if _, err := svc.Stop(context.Background(), userID, false); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if len(metrics.applied) != 0 {
		t.Errorf("Expected no metrics for abandoned session, got %d", len(metrics.applied))
	}
	if len(disp.jobs) != 0 {
		t.Errorf("Expected no insight jobs, got %d", len(disp.jobs))
	}
}

func TestStop_BreakSessionSkipsMetrics(t *testing.T) {
	userID := uuid.New()
	metrics := &fakeMetricsStore{}
	svc, clock := newTestTimer(&fakeSessionStore{}, metrics, &fakeDispatcher{})

	svc.Start(context.Background(), userID, nil, models.SessionShortBreak)
	*clock = clock.Add(5 * time.Minute)

	if _, err := svc.Stop(context.Background(), userID, true); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if len(metrics.applied) != 0 {
		t.Errorf("Expected no metrics for break session, got %d", len(metrics.applied))
	}
}

func TestStop_DispatchFailureDoesNotFailStop(t *testing.T) {
	userID := uuid.New()
	disp := &fakeDispatcher{err: errors.New("redis down")}
	svc, clock := newTestTimer(&fakeSessionStore{}, &fakeMetricsStore{}, disp)

	svc.Start(context.Background(), userID, nil, models.SessionWork)
	*clock = clock.Add(25 * time.Minute)

	if _, err := svc.Stop(context.Background(), userID, true); err != nil {
		t.Fatalf("Expected stop to succeed despite dispatch failure, got %v", err)
	}
}

func TestStop_MetricsFailurePropagates(t *testing.T) {
	userID := uuid.New()
	metrics := &fakeMetricsStore{err: errors.New("db down")}
	svc, clock := newTestTimer(&fakeSessionStore{}, metrics, &fakeDispatcher{})

	svc.Start(context.Background(), userID, nil, models.SessionWork)
	*clock = clock.Add(25 * time.Minute)

	if _, err := svc.Stop(context.Background(), userID, true); err == nil {
		t.Fatal("Expected metrics failure to propagate")
	}
}

func TestSwitchTask_StopsOldAndStartsNew(t *testing.T) {
	userID := uuid.New()
	store := &fakeSessionStore{}
	metrics := &fakeMetricsStore{}
	svc, clock := newTestTimer(store, metrics, &fakeDispatcher{})

	oldTask := uuid.New()
	svc.Start(context.Background(), userID, &oldTask, models.SessionWork)
	*clock = clock.Add(15 * time.Minute)

	newTask := uuid.New()
	result, err := svc.SwitchTask(context.Background(), userID, newTask, models.SessionWork, "")
	if err != nil {
		t.Fatalf("SwitchTask failed: %v", err)
	}

	if result.OldSession.SplitReason == nil || *result.OldSession.SplitReason != "TASK_SWITCH" {
		t.Errorf("Expected TASK_SWITCH split reason, got %v", result.OldSession.SplitReason)
	}
	if !result.OldSession.WasCompleted {
		t.Error("Expected old session completed")
	}
	if result.NewSession.TaskID == nil || *result.NewSession.TaskID != newTask {
		t.Error("Expected new session bound to new task")
	}
	if result.NewSession.EndedAt != nil {
		t.Error("Expected new session active")
	}
	if len(metrics.applied) != 1 {
		t.Errorf("Expected old session recorded exactly once, got %d deltas", len(metrics.applied))
	}
}

func TestGetActive_NoSessionReturnsNil(t *testing.T) {
	svc, _ := newTestTimer(&fakeSessionStore{}, &fakeMetricsStore{}, &fakeDispatcher{})

	view, err := svc.GetActive(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if view != nil {
		t.Errorf("Expected nil view, got %+v", view)
	}
}
