package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"studytracker-backend/internal/models"
	"studytracker-backend/internal/repository"
	"studytracker-backend/internal/services"
)

// ─── Fixtures ───

var testNow = time.Date(2025, 1, 3, 18, 0, 0, 0, time.UTC)

func newTestTracker(store repository.SessionStore) *services.Tracker {
	p := services.DefaultPolicy()
	p.Location = time.UTC
	tr := services.NewTracker(store, p, nil, nil)
	clock := testNow
	tr.SetClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	return tr
}

func newTestRouter(store repository.SessionStore) http.Handler {
	tr := newTestTracker(store)
	sessions := NewStudySessionHandler(tr, nil)
	dashboard := NewDashboardHandler(tr, nil)
	content := NewContentHandler(tr)

	r := chi.NewRouter()
	r.Get("/sessions", sessions.List)
	r.Post("/sessions", sessions.Create)
	r.Post("/sessions/reindex", sessions.Reindex)
	r.Get("/sessions/{id}", sessions.Get)
	r.Put("/sessions/{id}", sessions.Update)
	r.Delete("/sessions/{id}", sessions.Delete)
	r.Get("/sessions/{id}/post", content.SocialPost)
	r.Get("/sessions/{id}/article", content.Article)
	r.Get("/dashboard", dashboard.Stats)
	r.Get("/dashboard/streak", dashboard.Streak)
	r.Get("/dashboard/accountability", dashboard.Accountability)
	r.Get("/charts/{name}", dashboard.Chart)
	return r
}

func seededStore() *repository.MemorySessionRepo {
	return repository.NewMemorySessionRepo(
		models.StudySession{ID: "a", Day: 1, Date: models.NewDate(2025, 1, 1), CreatedAt: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
			Topic: "Pandas", Category: "Data Analysis", Duration: "2 hours", DailyWin: "groupby"},
		models.StudySession{ID: "b", Day: 2, Date: models.NewDate(2025, 1, 2), CreatedAt: time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC),
			Topic: "Kinematics", Category: "Physics", Duration: "45 minutes", DailyWin: "projectiles"},
	)
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
}

// ─── Session Handler Tests ───

func TestCreateSession_ReordersDays(t *testing.T) {
	h := newTestRouter(seededStore())

	rr := do(t, h, http.MethodPost, "/sessions", map[string]string{
		"date": "2024-12-31", "topic": "SQL basics", "duration": "1 hora", "daily_win": "SELECT",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var created struct {
		Session models.StudySession `json:"session"`
	}
	decode(t, rr, &created)
	if created.Session.Day != 1 || created.Session.Category != models.DefaultCategory {
		t.Fatalf("unexpected created session: %+v", created.Session)
	}

	rr = do(t, h, http.MethodGet, "/sessions?sort=oldest", nil)
	var page services.HistoryPage
	decode(t, rr, &page)
	if page.Total != 3 || page.Sessions[2].ID != "b" || page.Sessions[2].Day != 3 {
		t.Fatalf("unexpected history: %+v", page)
	}
}

func TestCreateSession_Validation(t *testing.T) {
	h := newTestRouter(seededStore())

	rr := do(t, h, http.MethodPost, "/sessions", map[string]string{"topic": "only topic"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var resp models.ErrorResponse
	decode(t, rr, &resp)
	if resp.Error.Code != "VALIDATION_ERROR" || resp.Error.RequestID != "req-1" {
		t.Fatalf("unexpected error envelope: %+v", resp.Error)
	}
	if _, ok := resp.Error.Fields["daily_win"]; !ok {
		t.Fatalf("expected daily_win field error, got %v", resp.Error.Fields)
	}
}

func TestCreateSession_InvalidBody(t *testing.T) {
	h := newTestRouter(seededStore())

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestGetUpdateDeleteSession(t *testing.T) {
	store := seededStore()
	h := newTestRouter(store)

	if rr := do(t, h, http.MethodGet, "/sessions/a", nil); rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/sessions/nope", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("missing get status = %d, want 404", rr.Code)
	}

	rr := do(t, h, http.MethodPut, "/sessions/a", map[string]string{
		"date": "2025-01-05", "topic": "Pandas II", "duration": "1 hour", "daily_win": "merge",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rr.Code, rr.Body.String())
	}
	var updated struct {
		Session models.StudySession `json:"session"`
	}
	decode(t, rr, &updated)
	if updated.Session.Day != 2 || updated.Session.Topic != "Pandas II" {
		t.Fatalf("unexpected update: %+v", updated.Session)
	}

	if rr := do(t, h, http.MethodDelete, "/sessions/b", nil); rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rr.Code)
	}
	a, _ := store.SelectByID(context.Background(), "a")
	if a.Day != 1 {
		t.Fatalf("expected gap closed, a.day = %d", a.Day)
	}
	if rr := do(t, h, http.MethodDelete, "/sessions/b", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rr.Code)
	}
}

func TestListSessions_Filters(t *testing.T) {
	h := newTestRouter(seededStore())

	rr := do(t, h, http.MethodGet, "/sessions?search=kine", nil)
	var page services.HistoryPage
	decode(t, rr, &page)
	if page.Shown != 1 || page.Total != 2 || page.Sessions[0].ID != "b" {
		t.Fatalf("unexpected filtered page: %+v", page)
	}
}

func TestReindex_Handler(t *testing.T) {
	store := repository.NewMemorySessionRepo(
		models.StudySession{ID: "x", Day: 5, Date: models.NewDate(2025, 1, 1)},
	)
	h := newTestRouter(store)

	rr := do(t, h, http.MethodPost, "/sessions/reindex", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Report services.ReindexReport `json:"report"`
	}
	decode(t, rr, &resp)
	if len(resp.Report.Updated) != 1 {
		t.Fatalf("expected one update, got %+v", resp.Report)
	}
}

type unavailableStore struct {
	*repository.MemorySessionRepo
}

func (unavailableStore) SelectAll(ctx context.Context) ([]models.StudySession, error) {
	return nil, errors.New("connection refused")
}

func TestStoreUnavailable_Maps503(t *testing.T) {
	h := newTestRouter(unavailableStore{repository.NewMemorySessionRepo()})

	for _, path := range []string{"/sessions", "/dashboard", "/dashboard/streak"} {
		rr := do(t, h, http.MethodGet, path, nil)
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: status = %d, want 503", path, rr.Code)
		}
		var resp models.ErrorResponse
		decode(t, rr, &resp)
		if resp.Error.Code != "STORE_UNAVAILABLE" {
			t.Fatalf("%s: code = %s", path, resp.Error.Code)
		}
	}
}

// ─── Dashboard Handler Tests ───

func TestDashboard(t *testing.T) {
	h := newTestRouter(seededStore())

	rr := do(t, h, http.MethodGet, "/dashboard", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var d services.Dashboard
	decode(t, rr, &d)
	if d.TotalSessions != 2 || d.TotalStudiedTime != "2h 45m" || d.Streak != 2 || d.DaysSinceLastStudy != 1 {
		t.Fatalf("unexpected dashboard: %+v", d)
	}
	if d.Accountability.Level != services.LevelAttention {
		t.Fatalf("expected attention level, got %s", d.Accountability.Level)
	}

	rr = do(t, h, http.MethodGet, "/dashboard/streak", nil)
	var streak map[string]int
	decode(t, rr, &streak)
	if streak["streak"] != 2 {
		t.Fatalf("streak = %d", streak["streak"])
	}
}

func TestCharts(t *testing.T) {
	h := newTestRouter(seededStore())

	rr := do(t, h, http.MethodGet, "/charts/balance", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("json chart status = %d", rr.Code)
	}
	var chart services.ChartSeries
	decode(t, rr, &chart)
	if fmt.Sprint(chart.Values) != "[1 1]" {
		t.Fatalf("unexpected balance values %v", chart.Values)
	}

	rr = do(t, h, http.MethodGet, "/charts/progress.png", nil)
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("png chart status = %d type %q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if _, err := png.Decode(rr.Body); err != nil {
		t.Fatalf("invalid png: %v", err)
	}

	if rr := do(t, h, http.MethodGet, "/charts/unknown", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown chart status = %d, want 404", rr.Code)
	}
}

// ─── Content Handler Tests ───

func TestSocialPostAndArticle(t *testing.T) {
	h := newTestRouter(seededStore())

	rr := do(t, h, http.MethodGet, "/sessions/b/post", nil)
	var post map[string]string
	decode(t, rr, &post)
	if post["summary"] != "Día 2/100 | Physics | Kinematics" {
		t.Fatalf("summary = %q", post["summary"])
	}
	if !strings.Contains(post["post"], "Victoria del día: projectiles") {
		t.Fatalf("post missing daily win: %s", post["post"])
	}

	rr = do(t, h, http.MethodGet, "/sessions/b/article", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("article status = %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "_2025-01-02_medium.md") {
		t.Fatalf("unexpected disposition %q", rr.Header().Get("Content-Disposition"))
	}
	if !strings.HasPrefix(rr.Body.String(), "---\n") {
		t.Fatalf("article should start with front matter")
	}
}
