package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/queryservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *queryservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/search", h.Search)
	r.Get("/notes/*", h.GetNote)
	r.Post("/notes", h.CreateNote)
	r.Get("/tags", h.ListTags)

	return r
}
