package server

import (
	"net/http"

	"github.com/cloo-solutions/stylechat/internal/api"
	"github.com/cloo-solutions/stylechat/internal/api/handlers"
	"github.com/cloo-solutions/stylechat/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	// APIToken guards every route except /health. Empty disables auth.
	APIToken string
	// SentryTags are set on every request scope.
	SentryTags   map[string]string
	ChatHandler  *handlers.ChatHandler
	IndexHandler *handlers.IndexHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.Sentry(cfg.SentryTags))
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerToken(cfg.APIToken))

		r.Post("/search", cfg.ChatHandler.Search)
		r.Post("/chat", cfg.ChatHandler.Chat)
		r.Post("/index/rebuild", cfg.IndexHandler.Rebuild)
	})

	return r
}
