package tasks

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers task routes on an authenticated router group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/tasks", h.list)
	r.Get("/tasks/stats", h.stats)
	r.Get("/tasks/{id}", h.show)
	r.Post("/tasks", h.create)
	r.Put("/tasks/{id}", h.update)
	r.Delete("/tasks/{id}", h.delete)
}
