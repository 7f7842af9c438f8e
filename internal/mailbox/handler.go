package mailbox

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nbthub-com/project-manager/internal/authz"
	"github.com/nbthub-com/project-manager/internal/platform/httpx"
	"github.com/nbthub-com/project-manager/internal/shared"
)

// Handler wires HTTP endpoints for the mailbox.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers mailbox routes on an authenticated router group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/mailbox", h.list)
	r.Post("/mailbox", h.send)
	r.Put("/mailbox/{id}", h.update)
	r.Patch("/mailbox/{id}/read", h.markRead)
	r.Patch("/mailbox/{id}/star", h.toggleStar)
	r.Delete("/mailbox/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	messages, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.logger.Error("list mailbox", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	principal, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var req SendMessageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	message, err := h.service.Send(r.Context(), principal, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, message)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}
	var req UpdateMessageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	message, err := h.service.Update(r.Context(), principal, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, message)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}
	if err := h.service.MarkRead(r.Context(), principal, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (h *Handler) toggleStar(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}
	message, err := h.service.ToggleStar(r.Context(), principal, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, message)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) principalAndID(w http.ResponseWriter, r *http.Request) (authz.Principal, int64, bool) {
	principal, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return authz.Principal{}, 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return authz.Principal{}, 0, false
	}
	return principal, id, true
}
