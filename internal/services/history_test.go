package services

import (
	"fmt"
	"testing"
	"time"

	"studytracker-backend/internal/models"
)

func historyFixture(n int) []models.StudySession {
	start := models.NewDate(2025, 1, 1)
	out := make([]models.StudySession, n)
	for i := range out {
		d := start.AddDays(i)
		out[i] = models.StudySession{
			ID:        fmt.Sprintf("s%02d", i+1),
			Day:       i + 1,
			Date:      d,
			CreatedAt: d.Time().Add(9 * time.Hour),
			Topic:     fmt.Sprintf("Topic %d", i+1),
		}
	}
	if n > 4 {
		out[4].Topic = "Estadística bayesiana"
	}
	return out
}

func ids(sessions []models.StudySession) string {
	s := ""
	for i, x := range sessions {
		if i > 0 {
			s += ","
		}
		s += x.ID
	}
	return s
}

func TestFilterHistory(t *testing.T) {
	sessions := historyFixture(25)

	tests := []struct {
		name  string
		query HistoryQuery
		first string
		shown int
	}{
		{"default is newest first", HistoryQuery{}, "s25", 25},
		{"oldest", HistoryQuery{Sort: SortOldest}, "s01", 25},
		{"last7 keeps most recent sessions", HistoryQuery{Period: PeriodLast7, Sort: SortOldest}, "s19", 7},
		{"last30 with fewer sessions", HistoryQuery{Period: PeriodLast30}, "s25", 25},
		{"milestones", HistoryQuery{Period: PeriodMilestones, Sort: SortDay}, "s10", 2},
		{"search is case-insensitive", HistoryQuery{Search: "ESTADÍSTICA"}, "s05", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			page := FilterHistory(sessions, tc.query)
			if page.Shown != tc.shown || len(page.Sessions) != tc.shown {
				t.Fatalf("shown = %d (%s), want %d", page.Shown, ids(page.Sessions), tc.shown)
			}
			if page.Total != 25 {
				t.Fatalf("total = %d, want 25", page.Total)
			}
			if page.Sessions[0].ID != tc.first {
				t.Fatalf("first = %s, want %s", page.Sessions[0].ID, tc.first)
			}
		})
	}
}

func TestFilterHistory_DoesNotModifyInput(t *testing.T) {
	sessions := historyFixture(3)
	FilterHistory(sessions, HistoryQuery{Sort: SortRecent})
	if ids(sessions) != "s01,s02,s03" {
		t.Fatalf("input reordered: %s", ids(sessions))
	}
}
