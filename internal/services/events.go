package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"studytracker-backend/internal/logger"
	"studytracker-backend/internal/models"
)

const (
	SessionEventsChannel = "sessions:events"
	ReindexRetryQueue    = "queue:reindex-retry"
	dashboardCacheKey    = "cache:dashboard"
	dashboardCacheTTL    = 5 * time.Minute
	minDashboardCacheTTL = time.Second

	EventSessionsChanged = "sessions.changed"
)

// ReindexJob is pushed onto ReindexRetryQueue when a reindex pass left stale day numbers.
type ReindexJob struct {
	Reason     string    `json:"reason"`
	SessionIDs []string  `json:"session_ids,omitempty"`
	Attempt    int       `json:"attempt"`
	QueuedAt   time.Time `json:"queued_at"`
}

// Broadcaster carries the tracker's side effects: dashboard caching, change events and
// reindex retries. Without a *redis.Client caching and retries are no-ops and events go to
// the local sink.
type Broadcaster struct {
	redis *redis.Client
	log   *logger.Logger
	local func([]byte)
}

func NewBroadcaster(redisClient *redis.Client, log *logger.Logger) *Broadcaster {
	if log == nil {
		log = logger.Nop()
	}
	return &Broadcaster{redis: redisClient, log: log}
}

// SetLocalSink delivers events in-process when Redis is not configured.
func (b *Broadcaster) SetLocalSink(fn func([]byte)) { b.local = fn }

func (b *Broadcaster) enabled() bool { return b != nil && b.redis != nil }

// PublishUpdate sends a WebSocket update via Redis pub/sub.
func (b *Broadcaster) PublishUpdate(ctx context.Context, ev models.SessionEvent) {
	if b == nil {
		return
	}
	data, err := json.Marshal(models.WSMessage{Type: EventSessionsChanged, Payload: ev})
	if err != nil {
		return
	}
	if b.redis == nil {
		if b.local != nil {
			b.local(data)
		}
		return
	}
	if err := b.redis.Publish(ctx, SessionEventsChannel, string(data)).Err(); err != nil {
		b.log.Warn("publish session event failed", "action", ev.Action, "error", err)
	}
}

func (b *Broadcaster) CachedDashboard(ctx context.Context) (*Dashboard, bool) {
	if !b.enabled() {
		return nil, false
	}
	raw, err := b.redis.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			b.log.Warn("read dashboard cache failed", "error", err)
		}
		return nil, false
	}
	var d Dashboard
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, false
	}
	return &d, true
}

// CacheDashboard stores d for ttl. Snapshots about to expire are not worth the round trip.
func (b *Broadcaster) CacheDashboard(ctx context.Context, d *Dashboard, ttl time.Duration) {
	if !b.enabled() || d == nil || ttl < minDashboardCacheTTL {
		return
	}
	data, err := json.Marshal(d)
	if err != nil {
		return
	}
	if err := b.redis.Set(ctx, dashboardCacheKey, data, ttl).Err(); err != nil {
		b.log.Warn("write dashboard cache failed", "error", err)
	}
}

func (b *Broadcaster) InvalidateDashboard(ctx context.Context) {
	if !b.enabled() {
		return
	}
	if err := b.redis.Del(ctx, dashboardCacheKey).Err(); err != nil {
		b.log.Warn("invalidate dashboard cache failed", "error", err)
	}
}

// EnqueueReindex schedules another reindex pass for the worker pool.
func (b *Broadcaster) EnqueueReindex(ctx context.Context, job ReindexJob) error {
	if !b.enabled() {
		return nil
	}
	if job.QueuedAt.IsZero() {
		job.QueuedAt = time.Now().UTC()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := b.redis.RPush(ctx, ReindexRetryQueue, data).Err(); err != nil {
		return fmt.Errorf("enqueue reindex retry: %w", err)
	}
	return nil
}
