package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskflow-backend/internal/models"
)

// TaskStore mutates task state. Complete returns pgx.ErrNoRows when the
// task does not exist, belongs to someone else, or is already done.
type TaskStore interface {
	Complete(ctx context.Context, taskID, userID uuid.UUID) (*models.Task, error)
}

// TaskService handles the one task operation the metrics pipeline cares
// about: completing a task bumps the day's tasks_completed accumulator.
type TaskService struct {
	tasks   TaskStore
	metrics MetricsStore
	now     func() time.Time
}

func NewTaskService(tasks TaskStore, metrics MetricsStore) *TaskService {
	return &TaskService{tasks: tasks, metrics: metrics, now: time.Now}
}

func (s *TaskService) Complete(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.Complete(ctx, taskID, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Message: "Task not found or already completed"}
	}
	if err != nil {
		return nil, err
	}

	delta := models.MetricsDelta{TasksCompleted: 1}
	if err := s.metrics.Apply(ctx, userID, dateOf(s.now()), delta); err != nil {
		return nil, fmt.Errorf("recording completion of task %s: %w", task.ID, err)
	}

	return task, nil
}
