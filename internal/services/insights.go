package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"taskflow-backend/internal/models"
)

// InsightQueueKey is the redis list the learn-from-session jobs flow
// through. The timer service pushes, the worker pool pops.
const InsightQueueKey = "queue:session-insights"

// InsightQueue is the fire-and-forget side of the learn-from-session hook:
// it serializes the job and pushes it onto the redis queue. The push is the
// only work done on the session-stop path.
type InsightQueue struct {
	redis *redis.Client
}

func NewInsightQueue(redisClient *redis.Client) *InsightQueue {
	return &InsightQueue{redis: redisClient}
}

func (q *InsightQueue) Dispatch(ctx context.Context, job models.InsightJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling insight job: %w", err)
	}

	if err := q.redis.LPush(ctx, InsightQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueuing insight job: %w", err)
	}

	return nil
}

// InsightStore persists generated session insights.
type InsightStore interface {
	Create(ctx context.Context, insight *models.SessionInsight) error
}

// InsightService turns a completed session's work/pause breakdown into a
// short coaching note via Gemini. It runs only inside the worker pool, off
// the request path.
type InsightService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	insights InsightStore
	rateChan chan struct{} // Token bucket
}

func NewInsightService(apiKey string, concurrentReqs int, insights InsightStore) (*InsightService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.4)
	model.SetTopP(0.95)

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &InsightService{
		client:   client,
		model:    model,
		insights: insights,
		rateChan: rateChan,
	}, nil
}

func (s *InsightService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *InsightService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *InsightService) releaseRate() {
	s.rateChan <- struct{}{}
}

// LearnFromSession generates and stores an insight for a completed session.
func (s *InsightService) LearnFromSession(ctx context.Context, job models.InsightJob) error {
	if err := s.acquireRate(ctx); err != nil {
		return err
	}
	defer s.releaseRate()

	prompt := buildInsightPrompt(job)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("Gemini API error: %w", err)
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return fmt.Errorf("Gemini returned empty insight for session %s", job.SessionID)
	}

	return s.insights.Create(ctx, &models.SessionInsight{
		ID:        uuid.New(),
		UserID:    job.UserID,
		SessionID: job.SessionID,
		Insight:   text,
	})
}

func buildInsightPrompt(job models.InsightJob) string {
	return fmt.Sprintf(`You are a productivity coach. A user just finished a %s focus session.

Session stats:
- Duration: %d minutes of focused work
- Pauses: %d (totaling %d seconds)
- Focus score: %d out of 100

Write ONE short, specific observation (max 2 sentences) the user can act on
in their next session. Do not repeat the raw numbers back. Plain text only.`,
		strings.ToLower(string(job.Type)),
		job.DurationMinutes,
		job.PauseCount,
		job.TotalPauseSeconds,
		job.FocusScore,
	)
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
