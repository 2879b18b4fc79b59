package services

import (
	"fmt"
	"sort"
	"time"

	"studytracker-backend/internal/models"
)

// Policy holds the tolerance constants of the progress metrics. A session logged near
// midnight can land on "yesterday" for the evaluating clock; the grace period and the
// recent-session window absorb that skew.
type Policy struct {
	StreakGraceDays int
	RecentWindow    time.Duration
	NeverStudied    int
	Location        *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		StreakGraceDays: 1,
		RecentWindow:    12 * time.Hour,
		NeverStudied:    999,
		Location:        time.Local,
	}
}

// Today is the calendar day of now in the policy's time zone.
func (p Policy) Today(now time.Time) models.Date {
	if p.Location != nil {
		now = now.In(p.Location)
	}
	return models.DateOf(now)
}

// CurrentStreak counts consecutive study days ending today or within the grace period.
func CurrentStreak(sessions []models.StudySession, now time.Time, p Policy) int {
	if len(sessions) == 0 {
		return 0
	}

	dates := make([]models.Date, len(sessions))
	for i, s := range sessions {
		dates[i] = s.Date
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	if p.Today(now).DaysSince(dates[0]) > p.StreakGraceDays {
		return 0
	}

	streak := 1
	for i := 0; i+1 < len(dates); i++ {
		gap := dates[i].DaysSince(dates[i+1])
		if gap == 1 {
			streak++
		} else if gap > 1 {
			break
		}
		// Several sessions on one day neither extend nor break the chain.
	}
	return streak
}

// DaysSinceLastStudy returns whole days between today and the latest study date, or
// p.NeverStudied when there is no history. A one-day gap counts as zero when the newest
// session was created within p.RecentWindow of now.
func DaysSinceLastStudy(sessions []models.StudySession, now time.Time, p Policy) int {
	latest, ok := latestSession(sessions)
	if !ok {
		return p.NeverStudied
	}

	diff := p.Today(now).DaysSince(latest.Date)
	if diff == 1 && !latest.CreatedAt.IsZero() && now.Sub(latest.CreatedAt) < p.RecentWindow {
		return 0
	}
	return diff
}

// latestSession picks the session with the greatest date, preferring the most recently
// created one among sessions on that date.
func latestSession(sessions []models.StudySession) (models.StudySession, bool) {
	if len(sessions) == 0 {
		return models.StudySession{}, false
	}
	latest := sessions[0]
	for _, s := range sessions[1:] {
		if s.Date.After(latest.Date) || (s.Date.Equal(latest.Date) && s.CreatedAt.After(latest.CreatedAt)) {
			latest = s
		}
	}
	return latest, true
}

// TotalStudiedMinutes sums the parsed durations. Unparseable text counts as zero.
func TotalStudiedMinutes(sessions []models.StudySession) int {
	total := 0
	for _, s := range sessions {
		d, err := ParseDuration(s.Duration)
		if err != nil {
			continue
		}
		total += d.Minutes
	}
	return total
}

// FormatStudyTime renders minutes as "2h 45m", "2h" or "45m".
func FormatStudyTime(totalMinutes int) string {
	hours := totalMinutes / 60
	minutes := totalMinutes % 60

	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
