package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studytracker-backend/internal/logger"
	"studytracker-backend/internal/models"
	"studytracker-backend/internal/repository"
)

const DefaultChallengeDays = 100

// Tracker is the application service over a SessionStore. Every mutation is followed by a
// full reindex so day numbers stay dense and chronological.
type Tracker struct {
	store         repository.SessionStore
	policy        Policy
	challengeDays int
	now           func() time.Time
	events        *Broadcaster
	log           *logger.Logger
}

func NewTracker(store repository.SessionStore, policy Policy, events *Broadcaster, log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.Nop()
	}
	return &Tracker{
		store:         store,
		policy:        policy,
		challengeDays: DefaultChallengeDays,
		now:           time.Now,
		events:        events,
		log:           log,
	}
}

// SetClock replaces the wall clock. Tests use it to pin "now".
func (t *Tracker) SetClock(now func() time.Time) { t.now = now }

func (t *Tracker) SetChallengeDays(days int) {
	if days > 0 {
		t.challengeDays = days
	}
}

func (t *Tracker) Policy() Policy { return t.policy }

func (t *Tracker) Now() time.Time { return t.now() }

// LoadOrderedSessions returns every session sorted by (date, created_at).
func (t *Tracker) LoadOrderedSessions(ctx context.Context) ([]models.StudySession, error) {
	sessions, err := t.store.SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	SortChronologically(sessions)
	return sessions, nil
}

func (t *Tracker) GetSession(ctx context.Context, id string) (*models.StudySession, error) {
	s, err := t.store.SelectByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: "Study session not found"}
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return s, nil
}

func (t *Tracker) ChallengeDays() int { return t.challengeDays }

// RecordSession stores a new session and renumbers the whole history. The returned
// session carries its final day number.
func (t *Tracker) RecordSession(ctx context.Context, p models.SessionPayload) (*models.StudySession, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}

	existing, err := t.store.SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	now := t.now()
	s := models.StudySession{
		ID:        uuid.New().String(),
		Day:       len(existing) + 1,
		CreatedAt: now.UTC(),
	}
	p.Apply(&s)
	if s.Date.IsZero() {
		s.Date = t.policy.Today(now)
	}

	created, err := t.store.Upsert(ctx, &s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteRejected, err)
	}

	t.afterMutation(ctx, "created", created.ID)
	return t.reload(ctx, created), nil
}

// UpdateSession replaces the editable fields of an existing session. A changed date moves
// the session in the sequence; id and created_at never change.
func (t *Tracker) UpdateSession(ctx context.Context, id string, p models.SessionPayload) (*models.StudySession, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}

	current, err := t.store.SelectByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: "Study session not found"}
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s := *current
	date := s.Date
	p.Apply(&s)
	if s.Date.IsZero() {
		s.Date = date
	}

	updated, err := t.store.Upsert(ctx, &s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteRejected, err)
	}

	t.afterMutation(ctx, "updated", updated.ID)
	return t.reload(ctx, updated), nil
}

// RemoveSession deletes a session and closes the gap it leaves in the day numbers.
func (t *Tracker) RemoveSession(ctx context.Context, id string) error {
	if err := t.store.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Message: "Study session not found"}
		}
		return fmt.Errorf("%w: %w", ErrWriteRejected, err)
	}
	t.afterMutation(ctx, "deleted", id)
	return nil
}

// Reindex runs a standalone renumbering pass.
func (t *Tracker) Reindex(ctx context.Context) (ReindexReport, error) {
	report, err := Reindex(ctx, t.store)
	if len(report.Updated) > 0 {
		t.events.InvalidateDashboard(ctx)
		t.events.PublishUpdate(ctx, models.SessionEvent{Action: "reindexed"})
	}
	return report, err
}

func (t *Tracker) Streak(ctx context.Context) (int, error) {
	sessions, err := t.LoadOrderedSessions(ctx)
	if err != nil {
		return 0, err
	}
	return CurrentStreak(sessions, t.now(), t.policy), nil
}

func (t *Tracker) DaysSinceLastStudy(ctx context.Context) (int, error) {
	sessions, err := t.LoadOrderedSessions(ctx)
	if err != nil {
		return 0, err
	}
	return DaysSinceLastStudy(sessions, t.now(), t.policy), nil
}

func (t *Tracker) TotalStudiedTime(ctx context.Context) (string, error) {
	sessions, err := t.LoadOrderedSessions(ctx)
	if err != nil {
		return "", err
	}
	return FormatStudyTime(TotalStudiedMinutes(sessions)), nil
}

// Dashboard computes every headline metric from one read of the store. The snapshot is
// cached in Redis until the next mutation or until the clock moves its values.
func (t *Tracker) Dashboard(ctx context.Context) (*Dashboard, error) {
	if d, ok := t.events.CachedDashboard(ctx); ok {
		return d, nil
	}

	sessions, err := t.LoadOrderedSessions(ctx)
	if err != nil {
		return nil, err
	}
	now := t.now()
	d := BuildDashboard(sessions, now, t.policy, t.challengeDays)
	t.events.CacheDashboard(ctx, d, dashboardTTL(d, now, t.policy))
	return d, nil
}

// dashboardTTL bounds how long a snapshot stays correct. Streak and days-since move at
// local midnight and when the newest session leaves the recent window.
func dashboardTTL(d *Dashboard, now time.Time, p Policy) time.Duration {
	ttl := dashboardCacheTTL

	loc := p.Location
	if loc == nil {
		loc = now.Location()
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	if until := midnight.Sub(now); until < ttl {
		ttl = until
	}

	if d != nil && d.LastSession != nil && !d.LastSession.CreatedAt.IsZero() {
		if until := d.LastSession.CreatedAt.Add(p.RecentWindow).Sub(now); until > 0 && until < ttl {
			ttl = until
		}
	}
	return ttl
}

// BuildDashboard derives the dashboard from an already loaded history.
func BuildDashboard(sessions []models.StudySession, now time.Time, p Policy, challengeDays int) *Dashboard {
	minutes := TotalStudiedMinutes(sessions)
	since := DaysSinceLastStudy(sessions, now, p)
	d := &Dashboard{
		TotalSessions:      len(sessions),
		ChallengeDays:      challengeDays,
		ProgressPercent:    ProgressPercent(len(sessions), challengeDays),
		Streak:             CurrentStreak(sessions, now, p),
		DaysSinceLastStudy: since,
		TotalMinutes:       minutes,
		TotalStudiedTime:   FormatStudyTime(minutes),
		Accountability:     Accountability(since, len(sessions)),
		Milestone:          Milestone(len(sessions)),
	}
	if last, ok := latestSession(sessions); ok {
		d.LastSession = &last
	}
	return d
}

// afterMutation renumbers the history after a successful primary write. A failed or
// partial reindex does not fail the mutation; it is logged and queued for retry.
func (t *Tracker) afterMutation(ctx context.Context, action, id string) {
	report, err := Reindex(ctx, t.store)
	if err != nil {
		job := ReindexJob{Reason: action + " " + id}
		if partial, ok := IsPartialReindex(err); ok {
			job.SessionIDs = partial.FailedIDs()
			t.log.Warn("reindex left stale day numbers", "action", action, "session_id", id,
				"updated", len(partial.Updated), "failed", job.SessionIDs)
		} else {
			t.log.Error("reindex after mutation failed", "action", action, "session_id", id, "error", err)
		}
		if qerr := t.events.EnqueueReindex(ctx, job); qerr != nil {
			t.log.Error("could not queue reindex retry", "error", qerr)
		}
	} else if len(report.Updated) > 0 {
		t.log.Debug("reindexed sessions", "action", action, "updated", len(report.Updated))
	}

	t.events.InvalidateDashboard(ctx)
	t.events.PublishUpdate(ctx, models.SessionEvent{Action: action, SessionID: id})
}

// reload re-reads a session so callers see the day number assigned by the reindex.
func (t *Tracker) reload(ctx context.Context, fallback *models.StudySession) *models.StudySession {
	s, err := t.store.SelectByID(ctx, fallback.ID)
	if err != nil {
		return fallback
	}
	return s
}

func validatePayload(p models.SessionPayload) error {
	fields := map[string]string{}
	if strings.TrimSpace(p.Topic) == "" {
		fields["topic"] = "Topic is required"
	}
	if strings.TrimSpace(p.Duration) == "" {
		fields["duration"] = "Duration is required"
	}
	if strings.TrimSpace(p.DailyWin) == "" {
		fields["daily_win"] = "Daily win is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
