package server

import (
	"net/http"

	"github.com/calgary-pulse/pulseqa/internal/api"
	"github.com/calgary-pulse/pulseqa/internal/api/handlers"
	"github.com/calgary-pulse/pulseqa/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	AskHandler       *handlers.AskHandler
	IndexHandler     *handlers.IndexHandler
	CommunityHandler *handlers.CommunityHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/ask", func(r chi.Router) {
		r.Post("/", cfg.AskHandler.Ask)
		r.Post("/batch", cfg.AskHandler.AskBatch)
	})

	r.Post("/index", cfg.IndexHandler.Index)
	r.Get("/stats", cfg.IndexHandler.Stats)

	r.Route("/communities", func(r chi.Router) {
		r.Get("/", cfg.CommunityHandler.List)
		r.Get("/{slug}", cfg.CommunityHandler.Get)
		r.Delete("/{slug}", cfg.IndexHandler.Remove)
	})

	return r
}
