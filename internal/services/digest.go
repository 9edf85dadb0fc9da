package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"taskflow-backend/internal/models"
)

const (
	weeklyDigestInterval = 7 * 24 * time.Hour
	digestPollInterval   = 1 * time.Hour
)

// DigestUserStore lists the users who opted into the weekly digest and
// records when each was last sent.
type DigestUserStore interface {
	ListDigestRecipients(ctx context.Context) ([]models.DigestRecipient, error)
	MarkDigestSent(ctx context.Context, userID uuid.UUID, sentAt time.Time) error
}

// DigestScheduler periodically emails opted-in users a summary of their last
// week of focus work. Everything here is best effort: a failed send is
// logged and retried on the next poll.
type DigestScheduler struct {
	users    DigestUserStore
	metrics  *MetricsService
	email    *EmailService
	stopChan chan struct{}
}

func NewDigestScheduler(users DigestUserStore, metrics *MetricsService, email *EmailService) *DigestScheduler {
	return &DigestScheduler{
		users:    users,
		metrics:  metrics,
		email:    email,
		stopChan: make(chan struct{}),
	}
}

func (s *DigestScheduler) Start() {
	if s.users == nil || s.metrics == nil || s.email == nil {
		return
	}

	go s.loop()

	log.Printf("Digest scheduler started")
}

func (s *DigestScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *DigestScheduler) loop() {
	// Run on startup as well as by interval.
	s.sendWeeklyDigests(context.Background(), time.Now().UTC())

	ticker := time.NewTicker(digestPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sendWeeklyDigests(context.Background(), time.Now().UTC())
		}
	}
}

func (s *DigestScheduler) sendWeeklyDigests(ctx context.Context, now time.Time) {
	recipients, err := s.users.ListDigestRecipients(ctx)
	if err != nil {
		log.Printf("weekly digest: failed to list recipients: %v", err)
		return
	}

	// The digest covers the previous complete ISO week.
	weekStart := startOfISOWeek(now).AddDate(0, 0, -7)
	weekEnd := weekStart.AddDate(0, 0, 6)

	for _, recipient := range recipients {
		if !shouldSendDigest(recipient.LastSentAt, now) {
			continue
		}

		summary, err := s.metrics.GetDateRangeMetrics(ctx, recipient.ID, weekStart, weekEnd)
		if err != nil {
			log.Printf("weekly digest: failed to load metrics for user %s: %v", recipient.ID, err)
			continue
		}

		if summary.TotalPomodoros == 0 && summary.TotalTasks == 0 && summary.TotalMinutes == 0 {
			continue
		}

		streak, err := s.metrics.GetProductivityStreak(ctx, recipient.ID)
		if err != nil {
			log.Printf("weekly digest: failed to load streak for user %s: %v", recipient.ID, err)
			continue
		}

		if err := s.email.SendWeeklyDigestEmail(
			recipient.Email,
			recipient.FullName,
			summary.TotalPomodoros,
			summary.TotalTasks,
			summary.TotalMinutes,
			streak.Current,
		); err != nil {
			log.Printf("weekly digest: failed to send to %s: %v", recipient.Email, err)
			continue
		}

		if err := s.users.MarkDigestSent(ctx, recipient.ID, now); err != nil {
			log.Printf("weekly digest: failed to persist last sent at for user %s: %v", recipient.ID, err)
		}
	}
}

func shouldSendDigest(lastSentAt *time.Time, now time.Time) bool {
	if lastSentAt == nil || lastSentAt.IsZero() {
		return true
	}

	return now.Sub(*lastSentAt) >= weeklyDigestInterval
}
