package services

import (
	"sort"
	"strings"

	"studytracker-backend/internal/models"
)

const (
	PeriodAll        = "all"
	PeriodLast7      = "last7"
	PeriodLast30     = "last30"
	PeriodMilestones = "milestones"

	SortRecent = "recent"
	SortOldest = "oldest"
	SortDay    = "day"
)

type HistoryQuery struct {
	Period string
	Search string
	Sort   string
}

type HistoryPage struct {
	Sessions []models.StudySession `json:"sessions"`
	Shown    int                   `json:"shown"`
	Total    int                   `json:"total"`
}

// FilterHistory narrows and orders the history view. last7 and last30 keep the most recent
// sessions, not calendar days. The input slice is not modified.
func FilterHistory(sessions []models.StudySession, q HistoryQuery) HistoryPage {
	out := make([]models.StudySession, len(sessions))
	copy(out, sessions)
	SortChronologically(out)

	switch q.Period {
	case PeriodLast7:
		out = tail(out, 7)
	case PeriodLast30:
		out = tail(out, 30)
	case PeriodMilestones:
		kept := out[:0]
		for _, s := range out {
			if s.Day > 0 && s.Day%10 == 0 {
				kept = append(kept, s)
			}
		}
		out = kept
	}

	if needle := foldCaser.String(strings.TrimSpace(q.Search)); needle != "" {
		kept := out[:0]
		for _, s := range out {
			if strings.Contains(foldCaser.String(s.Topic), needle) {
				kept = append(kept, s)
			}
		}
		out = kept
	}

	switch q.Sort {
	case SortOldest:
	case SortDay:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	default:
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}

	return HistoryPage{Sessions: out, Shown: len(out), Total: len(sessions)}
}

func tail(s []models.StudySession, n int) []models.StudySession {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
