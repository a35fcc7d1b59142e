package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withLogging)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/auth/register", h.register)
		r.Post("/api/auth/login", h.login)
		r.Get("/api/ping", h.ping)
	})

	// routes with authorization
	router.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Post("/api/lists", h.createList)
		r.Get("/api/lists/{listID}", h.getSnapshot)
		r.Post("/api/lists/{listID}/editors", h.shareList)
		r.Post("/api/lists/{listID}/ops", h.applyOperation)
	})

	return router
}

// ping is the connectivity probe used by clients to detect online/offline
// transitions. It answers before any storage is touched.
func (h *Handler) ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
