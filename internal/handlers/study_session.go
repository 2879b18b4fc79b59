package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studytracker-backend/internal/logger"
	"studytracker-backend/internal/models"
	"studytracker-backend/internal/services"
)

type StudySessionHandler struct {
	tracker *services.Tracker
	log     *logger.Logger
}

func NewStudySessionHandler(tracker *services.Tracker, log *logger.Logger) *StudySessionHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &StudySessionHandler{tracker: tracker, log: log}
}

// List returns the history view. Query params: period, search, sort.
func (h *StudySessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.tracker.LoadOrderedSessions(r.Context())
	if err != nil {
		h.log.Error("list sessions failed", "error", err)
		handleServiceError(w, r, err)
		return
	}

	q := r.URL.Query()
	page := services.FilterHistory(sessions, services.HistoryQuery{
		Period: q.Get("period"),
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	})
	writeJSON(w, http.StatusOK, page)
}

func (h *StudySessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.SessionPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	session, err := h.tracker.RecordSession(r.Context(), req)
	if err != nil {
		h.log.Warn("record session failed", "error", err)
		handleServiceError(w, r, err)
		return
	}

	resp := map[string]interface{}{"session": session}
	if all, err := h.tracker.LoadOrderedSessions(r.Context()); err == nil {
		if msg := services.Milestone(len(all)); msg != "" {
			resp["milestone"] = msg
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *StudySessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.tracker.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

func (h *StudySessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.SessionPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	session, err := h.tracker.UpdateSession(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.log.Warn("update session failed", "id", chi.URLParam(r, "id"), "error", err)
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

func (h *StudySessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.RemoveSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.log.Warn("remove session failed", "id", chi.URLParam(r, "id"), "error", err)
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Study session deleted"})
}

// Reindex renumbers every session. A partial failure answers 207 with the report so the
// caller can see which records kept a stale day.
func (h *StudySessionHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	report, err := h.tracker.Reindex(r.Context())
	if err != nil {
		if partial, ok := services.IsPartialReindex(err); ok {
			h.log.Warn("reindex partially failed", "failed", partial.FailedIDs())
			writeJSON(w, http.StatusMultiStatus, map[string]interface{}{"report": partial})
			return
		}
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}
