package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(withGZip)
	if h.requestTimeout > 0 {
		router.Use(middleware.Timeout(h.requestTimeout))
	}

	// routes without authorization
	router.Get("/api/version", h.getServerVersion)

	// sync API
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/api/sync", h.sync)
		r.Post("/api/sync/reconcile", h.reconcile)
		r.Get("/api/sync/status", h.syncStatus)
		r.Delete("/api/sync/{collection}/{documentID}", h.deleteDocument)
	})

	router.NotFound(routeNotFound)
	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
