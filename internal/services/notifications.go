package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"studytracker-backend/internal/logger"
)

const (
	studyReminderLastSentKey = "notifications:study_reminder_last_sent_at"
	studyReminderInterval    = 24 * time.Hour
	notificationPollInterval = 1 * time.Hour
)

// NotificationScheduler emails a reminder when the learner has not studied for a while.
type NotificationScheduler struct {
	tracker     *Tracker
	email       *EmailService
	redis       *redis.Client
	recipient   string
	remindAfter int
	log         *logger.Logger

	mu       sync.Mutex
	lastSent time.Time
	stopChan chan struct{}
}

func NewNotificationScheduler(tracker *Tracker, email *EmailService, redisClient *redis.Client, recipient string, remindAfterDays int, log *logger.Logger) *NotificationScheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &NotificationScheduler{
		tracker:     tracker,
		email:       email,
		redis:       redisClient,
		recipient:   recipient,
		remindAfter: remindAfterDays,
		log:         log,
		stopChan:    make(chan struct{}),
	}
}

func (s *NotificationScheduler) Start() {
	if s.tracker == nil || s.email == nil || s.recipient == "" {
		s.log.Info("study reminders disabled", "recipient_configured", s.recipient != "")
		return
	}

	go s.loop(s.sendStudyReminder)
	s.log.Info("notification scheduler started", "remind_after_days", s.remindAfter)
}

func (s *NotificationScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *NotificationScheduler) loop(runFn func(ctx context.Context, now time.Time)) {
	// Run on startup as well as by interval.
	runFn(context.Background(), time.Now().UTC())

	ticker := time.NewTicker(notificationPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			runFn(context.Background(), time.Now().UTC())
		}
	}
}

func (s *NotificationScheduler) sendStudyReminder(ctx context.Context, now time.Time) {
	if !shouldSendByLastSent(s.lastSentRaw(ctx), studyReminderInterval, now) {
		return
	}

	d, err := s.tracker.Dashboard(ctx)
	if err != nil {
		s.log.Error("study reminder: failed to load dashboard", "error", err)
		return
	}
	if !reminderDue(d.DaysSinceLastStudy, s.remindAfter) {
		return
	}

	if err := s.email.SendStudyReminderEmail(s.recipient, d.DaysSinceLastStudy, d.Streak, d.LastSession); err != nil {
		s.log.Error("study reminder: failed to send", "to", s.recipient, "error", err)
		return
	}

	s.markSent(ctx, now)
}

func (s *NotificationScheduler) lastSentRaw(ctx context.Context) string {
	if s.redis != nil {
		raw, err := s.redis.Get(ctx, studyReminderLastSentKey).Result()
		if err == nil {
			return raw
		}
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("study reminder: failed to read last sent at", "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSent.IsZero() {
		return ""
	}
	return s.lastSent.Format(time.RFC3339)
}

func (s *NotificationScheduler) markSent(ctx context.Context, now time.Time) {
	s.mu.Lock()
	s.lastSent = now
	s.mu.Unlock()

	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, studyReminderLastSentKey, now.Format(time.RFC3339), 0).Err(); err != nil {
		s.log.Warn("study reminder: failed to persist last sent at", "error", err)
	}
}

func reminderDue(daysSince, remindAfter int) bool {
	if remindAfter <= 0 {
		return false
	}
	return daysSince >= remindAfter
}

func shouldSendByLastSent(lastSentRaw string, minInterval time.Duration, now time.Time) bool {
	if lastSentRaw == "" {
		return true
	}

	lastSentAt, err := time.Parse(time.RFC3339, lastSentRaw)
	if err != nil {
		return true
	}

	return now.Sub(lastSentAt) >= minInterval
}
