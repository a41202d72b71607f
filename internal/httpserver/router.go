package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"editorial-gateway/internal/handlers"
	"editorial-gateway/internal/metrics"
	"editorial-gateway/internal/middleware"
)

func SetupRouter(r *chi.Mux, baseLogger *zap.Logger, editorialHandler *handlers.EditorialHandler) {

	r.Use(metrics.Middleware)

	// base middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer()) // panic recovery
	// The editorial pipeline makes several upstream fetches plus a model
	// call, so the budget here is far above a typical API timeout.
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.MaxBodySize(64 * 1024)) // 64 KB max body

	// routes
	r.Route("/v1", func(r chi.Router) {
		r.Post("/editorial", editorialHandler.GetEditorial)
		r.Delete("/cache", editorialHandler.ClearCache)
	})

	// health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())
}
