package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/nbthub-com/project-manager/internal/authz"
	"github.com/nbthub-com/project-manager/internal/platform/httpx"
	"github.com/nbthub-com/project-manager/internal/shared"
)

// Middleware resolves the acting principal for downstream handlers. The
// account row is fetched fresh on every request; nothing about role or
// ownership is cached across requests.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequirePrincipal rejects anonymous requests and injects the principal into
// the request context.
func (m Middleware) RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		raw := strings.TrimSpace(sess.User())
		if raw == "" {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("auth parse user id", slog.String("value", raw))
			}
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		user, err := m.Service.UserByID(r.Context(), id)
		if err != nil || !user.IsActive {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		ctx := authz.ContextWithPrincipal(r.Context(), user.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin additionally rejects principals without the admin role.
// Must be mounted after RequirePrincipal.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := authz.PrincipalFromContext(r.Context())
		if !ok {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		if !principal.IsAdmin() {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
