package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"studytracker-backend/internal/logger"
	"studytracker-backend/internal/services"
)

const (
	maxReindexAttempts = 5
	reindexLockKey     = "lock:reindex"
	reindexLockTTL     = 2 * time.Minute
	queuePollTimeout   = 30 * time.Second
)

// Pool drains the reindex retry queue. Each job re-runs a full reindex; a pass that still
// leaves stale records is requeued until maxReindexAttempts.
type Pool struct {
	redis       *redis.Client
	tracker     *services.Tracker
	events      *services.Broadcaster
	log         *logger.Logger
	workerCount int
	backoff     time.Duration
	pollBackoff time.Duration
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, tracker *services.Tracker, events *services.Broadcaster, workerCount int, log *logger.Logger) *Pool {
	if log == nil {
		log = logger.Nop()
	}
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{
		redis:       redisClient,
		tracker:     tracker,
		events:      events,
		log:         log,
		workerCount: workerCount,
		backoff:     5 * time.Second,
		pollBackoff: 2 * time.Second,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	if p.redis == nil {
		p.log.Info("reindex retry workers disabled, no redis")
		return
	}
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	p.log.Info("started reindex retry workers", "count", p.workerCount)
}

func (p *Pool) Stop() {
	select {
	case <-p.stopChan:
	default:
		close(p.stopChan)
	}
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			p.log.Info("worker shutting down", "worker", id)
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, queuePollTimeout, services.ReindexRetryQueue).Result()
		if err != nil {
			if d := p.pollDelay(err); d > 0 {
				p.log.Warn("reindex queue unreachable", "worker", id, "retry_in", d, "error", err)
				if !p.sleep(d) {
					p.log.Info("worker shutting down", "worker", id)
					return
				}
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job services.ReindexJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			p.log.Error("failed to parse reindex job", "worker", id, "error", err)
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.log.Warn("reindex job failed", "worker", id, "attempt", job.Attempt, "error", err)
		}
	}
}

// pollDelay is zero for an empty queue (BLPOP timed out) and pollBackoff for a failing connection.
func (p *Pool) pollDelay(err error) time.Duration {
	if errors.Is(err, redis.Nil) {
		return 0
	}
	return p.pollBackoff
}

// sleep waits d and reports false if the pool was stopped meanwhile.
func (p *Pool) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-p.stopChan:
		return false
	}
}

// Process runs one retry. Concurrent jobs collapse into one pass through a short Redis lock.
func (p *Pool) Process(ctx context.Context, job services.ReindexJob) error {
	if p.redis != nil {
		locked, err := p.redis.SetNX(ctx, reindexLockKey, "1", reindexLockTTL).Result()
		if err != nil {
			return fmt.Errorf("acquire reindex lock: %w", err)
		}
		if !locked {
			return p.requeue(ctx, job, "reindex already running")
		}
		defer p.redis.Del(ctx, reindexLockKey)
	}

	report, err := p.tracker.Reindex(ctx)
	if err == nil {
		p.log.Info("reindex retry healed sessions", "reason", job.Reason, "updated", len(report.Updated))
		return nil
	}

	if partial, ok := services.IsPartialReindex(err); ok {
		job.SessionIDs = partial.FailedIDs()
	}
	return p.requeue(ctx, job, err.Error())
}

func (p *Pool) requeue(ctx context.Context, job services.ReindexJob, reason string) error {
	job.Attempt++
	if job.Attempt >= maxReindexAttempts {
		return fmt.Errorf("giving up after %d attempts: %s", job.Attempt, reason)
	}

	select {
	case <-time.After(p.backoff * time.Duration(job.Attempt)):
	case <-p.stopChan:
	}
	job.QueuedAt = time.Time{}
	if err := p.events.EnqueueReindex(ctx, job); err != nil {
		return err
	}
	return fmt.Errorf("requeued (attempt %d): %s", job.Attempt, reason)
}
