package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studytracker-backend/internal/handlers"
	"studytracker-backend/internal/middleware"
	"studytracker-backend/internal/websocket"
)

func New(
	studySessionHandler *handlers.StudySessionHandler,
	dashboardHandler *handlers.DashboardHandler,
	contentHandler *handlers.ContentHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Write rate limiter (30 req/min per IP)
	writeLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", studySessionHandler.List)
			r.Get("/{id}", studySessionHandler.Get)
			r.Get("/{id}/post", contentHandler.SocialPost)
			r.Get("/{id}/article", contentHandler.Article)

			r.Group(func(r chi.Router) {
				r.Use(writeLimiter.Middleware)
				r.Post("/", studySessionHandler.Create)
				r.Post("/reindex", studySessionHandler.Reindex)
				r.Put("/{id}", studySessionHandler.Update)
				r.Delete("/{id}", studySessionHandler.Delete)
			})
		})

		// ──── Dashboard Routes ────
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", dashboardHandler.Stats)
			r.Get("/streak", dashboardHandler.Streak)
			r.Get("/accountability", dashboardHandler.Accountability)
		})

		// ──── Chart Routes ────
		r.Get("/charts", dashboardHandler.ListCharts)
		r.Get("/charts/{name}", dashboardHandler.Chart)

		// ──── WebSocket ────
		if wsHub != nil {
			r.Get("/ws", wsHub.HandleWebSocket)
		}
	})

	return r
}
