package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"studytracker-backend/internal/services"
)

// ContentHandler turns a logged session into shareable text.
type ContentHandler struct {
	tracker *services.Tracker
}

func NewContentHandler(tracker *services.Tracker) *ContentHandler {
	return &ContentHandler{tracker: tracker}
}

func (h *ContentHandler) SocialPost(w http.ResponseWriter, r *http.Request) {
	session, err := h.tracker.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	days := h.tracker.ChallengeDays()
	writeJSON(w, http.StatusOK, map[string]string{
		"summary": services.PostSummary(*session, days),
		"post":    services.GenerateSocialPost(*session, days),
	})
}

// Article serves the Markdown draft as a download.
func (h *ContentHandler) Article(w http.ResponseWriter, r *http.Request) {
	session, err := h.tracker.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	article, err := services.GenerateArticle(*session, h.tracker.ChallengeDays())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	filename := services.ArticleFilename(*session)
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(article))
}
