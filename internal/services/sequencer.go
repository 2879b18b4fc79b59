package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"studytracker-backend/internal/models"
	"studytracker-backend/internal/repository"
)

// SortChronologically orders sessions by (date, created_at, id) ascending, in place.
func SortChronologically(sessions []models.StudySession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// Sequence sorts sessions chronologically and sets each Day to its 1-based rank.
// It returns the indexes (into the sorted slice) whose Day changed.
func Sequence(sessions []models.StudySession) []int {
	SortChronologically(sessions)

	var changed []int
	for i := range sessions {
		rank := i + 1
		if sessions[i].Day != rank {
			sessions[i].Day = rank
			changed = append(changed, i)
		}
	}
	return changed
}

type WriteFailure struct {
	SessionID string `json:"session_id"`
	Day       int    `json:"day"`
	Err       error  `json:"-"`
	Message   string `json:"error"`
}

type ReindexReport struct {
	Total   int            `json:"total"`
	Updated []string       `json:"updated"`
	Failed  []WriteFailure `json:"failed,omitempty"`
}

func (r ReindexReport) FailedIDs() []string {
	ids := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		ids[i] = f.SessionID
	}
	return ids
}

// ReindexError reports a reindex pass where some day writes were rejected. The records in
// Report.Updated were written; the failed ones keep a stale day until the next pass.
type ReindexError struct {
	Report ReindexReport
}

func (e *ReindexError) Error() string {
	return fmt.Sprintf("reindex: %d of %d day writes rejected", len(e.Report.Failed), len(e.Report.Failed)+len(e.Report.Updated))
}

func (e *ReindexError) Unwrap() error { return ErrWriteRejected }

// Reindex loads every session, re-derives day numbers, and writes back only the records
// whose day changed. Individual write failures do not stop the pass.
func Reindex(ctx context.Context, store repository.SessionStore) (ReindexReport, error) {
	sessions, err := store.SelectAll(ctx)
	if err != nil {
		return ReindexReport{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	report := ReindexReport{Total: len(sessions), Updated: []string{}}
	for _, i := range Sequence(sessions) {
		s := sessions[i]
		if _, err := store.Upsert(ctx, &s); err != nil {
			report.Failed = append(report.Failed, WriteFailure{
				SessionID: s.ID,
				Day:       s.Day,
				Err:       err,
				Message:   err.Error(),
			})
			continue
		}
		report.Updated = append(report.Updated, s.ID)
	}

	if len(report.Failed) > 0 {
		return report, &ReindexError{Report: report}
	}
	return report, nil
}

// IsPartialReindex reports whether err came from a reindex pass that wrote some records.
func IsPartialReindex(err error) (ReindexReport, bool) {
	var re *ReindexError
	if errors.As(err, &re) {
		return re.Report, true
	}
	return ReindexReport{}, false
}
