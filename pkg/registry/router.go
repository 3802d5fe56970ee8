package registry

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router exposing the management API for the
// controller. The router translates the store's typed failures into HTTP
// statuses; mutating endpoints attribute operations to the
// X-User-Principal header.
func NewRouter(c *Controller) chi.Router {
	r := chi.NewRouter()

	r.Route("/versions", func(r chi.Router) {
		r.Get("/", listVersionsHandler(c))
		r.Post("/", createVersionHandler(c))
		r.Get("/{id}", getVersionHandler(c))
		r.Post("/{id}/activate", activateHandler(c))
		r.Post("/{id}/rollback", rollbackHandler(c))
		r.Post("/{id}/stable", markStableHandler(c))
	})

	r.Post("/rollback-last-stable", rollbackLastStableHandler(c))
	r.Get("/compare", compareHandler(c))
	r.Get("/changelog", changelogHandler(c))
	r.Get("/history", historyHandler(c))
	r.Get("/status", statusHandler(c))

	return r
}
