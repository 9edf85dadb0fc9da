package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"taskflow-backend/internal/models"
	"taskflow-backend/internal/services"
)

// Pool drains the session-insight queue. Insight generation is best effort:
// a permanently failed job is logged and dropped, never surfaced to the
// session that enqueued it.
type Pool struct {
	redis       *redis.Client
	insights    *services.InsightService
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, insights *services.InsightService, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		insights:    insights,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d insight worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, services.InsightQueueKey).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.InsightJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse insight job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("insight_lock:%s", job.SessionID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: generating insight for session %s", id, job.SessionID)

		if err := p.insights.LearnFromSession(ctx, job); err != nil {
			p.handleFailure(&job, err)
		} else {
			log.Printf("Insight for session %s stored", job.SessionID)
		}

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) handleFailure(job *models.InsightJob, err error) {
	job.RetryCount++

	if job.RetryCount < 3 {
		log.Printf("Insight job for session %s failed (attempt %d): %v, retrying", job.SessionID, job.RetryCount, err)

		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), services.InsightQueueKey, string(jobBytes))
		})
		return
	}

	log.Printf("Insight job for session %s dropped after %d attempts: %v", job.SessionID, job.RetryCount, err)
}
