package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"mediacatalog-backend/internal/handlers"
	"mediacatalog-backend/internal/middleware"
	"mediacatalog-backend/internal/websocket"
)

func New(
	mediaHandler *handlers.MediaHandler,
	importHandler *handlers.ImportHandler,
	statsHandler *handlers.StatsHandler,
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

	// Import rate limiter (6 runs/min per IP); imports are heavy
	importLimiter := middleware.NewRateLimiter(6, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Media Catalog Routes ────
		r.Route("/media", func(r chi.Router) {
			r.Get("/", mediaHandler.List)
			r.Post("/", mediaHandler.Create)
			r.Get("/{id}", mediaHandler.Get)
			r.Put("/{id}", mediaHandler.Update)
			r.Delete("/{id}", mediaHandler.Delete)
		})

		// ──── Import Routes ────
		r.Route("/import", func(r chi.Router) {
			// Status polling stays unthrottled; only runs are limited.
			r.Get("/jobs/{id}", importHandler.GetJob)

			r.Group(func(r chi.Router) {
				r.Use(importLimiter.Middleware)
				r.Post("/csv", importHandler.ImportCSV)
				r.Post("/json", importHandler.ImportJSON)
				r.Post("/jobs", importHandler.CreateJob)
			})
		})

		// ──── Stats Routes ────
		r.Get("/stats", statsHandler.Stats)

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
