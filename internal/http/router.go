package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	Sessions       *SessionHandler
	Metrics        http.Handler
	AllowedOrigins []string
	Logger         *slog.Logger
	Middleware     []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(cfg.Logger))
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	if h := cfg.Sessions; h != nil {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.Open)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", h.Get)
				r.Delete("/", h.Close)
				r.Put("/policy", h.UpdatePolicy)
				r.Post("/ranges", h.AddRange)
				r.Put("/ranges/{rangeID}", h.UpdateRange)
				r.Delete("/ranges/{rangeID}", h.RemoveRange)
				r.Get("/conflicts", h.Conflicts)
				r.Post("/copy", h.Copy)
				r.Get("/slots", h.PendingSlots)
				r.Get("/calendar.ics", h.Calendar)
			})
		})
	}

	return r
}
