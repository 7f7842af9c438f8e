package httpx

import (
	"errors"
	"net/http"

	"github.com/nbthub-com/project-manager/internal/shared"
)

// RespondError maps the shared failure taxonomy to HTTP responses.
// Unknown errors are reported as 500 without leaking detail.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthenticated", "authentication required")
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusForbidden, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvariant):
		Problem(w, http.StatusUnprocessableEntity, "Invariant Violation", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
