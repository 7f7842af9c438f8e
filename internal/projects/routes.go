package projects

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers project routes. Fine-grained authorization happens in
// the service via the authz decision table; the router only guarantees an
// authenticated principal.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/projects", h.list)
	r.Get("/projects/stats", h.stats)
	r.Get("/projects/{id}", h.show)
	r.Post("/projects", h.create)
	r.Put("/projects/{id}", h.update)
	r.Patch("/projects/{id}/star", h.toggleStar)
	r.Delete("/projects/{id}", h.delete)
}
