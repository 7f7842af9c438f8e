package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nbthub-com/project-manager/internal/authz"
	"github.com/nbthub-com/project-manager/internal/platform/httpx"
	"github.com/nbthub-com/project-manager/internal/shared"
)

// Handler serves the dashboard endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers dashboard routes on an authenticated router group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.show)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	principal, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	d, err := h.service.Build(r.Context(), principal)
	if err != nil {
		h.logger.Error("build dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}
