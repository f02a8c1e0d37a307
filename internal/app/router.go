package app

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/litex-portal/litex/internal/audit"
	"github.com/litex-portal/litex/internal/auth"
	"github.com/litex-portal/litex/internal/authz"
	"github.com/litex-portal/litex/internal/companies"
	"github.com/litex-portal/litex/internal/documents"
	"github.com/litex-portal/litex/internal/jobs"
	"github.com/litex-portal/litex/internal/notifications"
	"github.com/litex-portal/litex/internal/observability"
	"github.com/litex-portal/litex/internal/shared"
	"github.com/litex-portal/litex/internal/tasks"
	"github.com/litex-portal/litex/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Identity       func(http.Handler) http.Handler
	Recorder       *audit.Recorder

	AuthHandler          *auth.Handler
	AuthzHandler         *authz.Handler
	Gate                 authz.Gate
	UsersHandler         *users.Handler
	CompaniesHandler     *companies.Handler
	TasksHandler         *tasks.Handler
	DocumentsHandler     *documents.Handler
	NotificationsHandler *notifications.Handler
	AuditHandler         *audit.Handler
	JobHandler           *jobs.Handler
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router for the portal API. Audit middleware
// wraps each mutating resource group outside the permission gates, so
// denied attempts land in the trail too.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Identity:       params.Identity,
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

	skipReads := func(r *http.Request) bool {
		return r.Method == http.MethodGet || r.Method == http.MethodHead
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Route("/me", func(r chi.Router) {
			r.With(params.Gate.RequireSession()).Get("/", params.AuthHandler.Me)
			params.AuthzHandler.MountMeRoutes(r)
		})

		r.Route("/roles", func(r chi.Router) {
			r.Use(audit.Middleware(params.Recorder, "role", audit.Options{
				EntityIDParam: "id",
				Skip:          skipReads,
			}))
			params.AuthzHandler.MountRoleRoutes(r)
		})

		r.Route("/permissions", params.AuthzHandler.MountPermissionRoutes)

		r.Route("/users", func(r chi.Router) {
			r.Use(audit.Middleware(params.Recorder, "user", audit.Options{
				EntityIDParam: "id",
				Skip:          skipReads,
			}))
			params.UsersHandler.MountRoutes(r)
			params.AuthzHandler.MountUserRoleRoutes(r)
		})

		r.Route("/companies", func(r chi.Router) {
			r.Use(audit.Middleware(params.Recorder, "company", audit.Options{
				EntityIDParam: "id",
				Skip:          skipReads,
			}))
			params.CompaniesHandler.MountRoutes(r)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(audit.Middleware(params.Recorder, "task", audit.Options{
				EntityIDParam: "id",
				Skip:          skipReads,
			}))
			params.TasksHandler.MountRoutes(r)
		})

		// Successful approve/reject record richer audit entries in the
		// service; the middleware still catches denied and failed attempts.
		r.Route("/documents", func(r chi.Router) {
			r.Use(audit.Middleware(params.Recorder, "document", audit.Options{
				EntityIDParam: "id",
				Skip:          skipReads,
				SkipSuccess: func(req *http.Request) bool {
					return strings.HasSuffix(req.URL.Path, "/approve") ||
						strings.HasSuffix(req.URL.Path, "/reject")
				},
			}))
			params.DocumentsHandler.MountRoutes(r)
		})

		r.Route("/notifications", params.NotificationsHandler.MountRoutes)
		r.Route("/audit", params.AuditHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
