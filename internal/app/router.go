package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nbthub-com/project-manager/internal/auth"
	"github.com/nbthub-com/project-manager/internal/dashboard"
	"github.com/nbthub-com/project-manager/internal/mailbox"
	"github.com/nbthub-com/project-manager/internal/members"
	"github.com/nbthub-com/project-manager/internal/notes"
	"github.com/nbthub-com/project-manager/internal/observability"
	"github.com/nbthub-com/project-manager/internal/platform/httpx"
	"github.com/nbthub-com/project-manager/internal/projects"
	"github.com/nbthub-com/project-manager/internal/shared"
	"github.com/nbthub-com/project-manager/internal/tasks"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthMiddleware auth.Middleware

	AuthHandler      *auth.Handler
	MembersHandler   *members.Handler
	ProjectsHandler  *projects.Handler
	TasksHandler     *tasks.Handler
	NotesHandler     *notes.Handler
	MailboxHandler   *mailbox.Handler
	DashboardHandler *dashboard.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router. Authentication is the router's only
// access-control concern; everything finer-grained lives in the services.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	r.Get("/csrf", csrfTokenHandler(params.Logger, params.CSRFManager))

	params.AuthHandler.MountRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequirePrincipal)
		params.MembersHandler.MountRoutes(r)
		params.ProjectsHandler.MountRoutes(r)
		params.TasksHandler.MountRoutes(r)
		params.NotesHandler.MountRoutes(r)
		params.MailboxHandler.MountRoutes(r)
		params.DashboardHandler.MountRoutes(r)
	})

	return r
}

// csrfTokenHandler issues the session's CSRF token. GET is exempt from the
// CSRF check, so a fresh client fetches its token here before the first write.
func csrfTokenHandler(logger *slog.Logger, manager *shared.CSRFManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := manager.EnsureToken(r.Context(), sess)
		if err != nil {
			logger.Error("issue csrf token", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"token": token})
	}
}
