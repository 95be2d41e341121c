package app

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/assetgrid/assetgrid/internal/assets"
	"github.com/assetgrid/assetgrid/internal/authn"
	"github.com/assetgrid/assetgrid/internal/licenses"
	"github.com/assetgrid/assetgrid/internal/observability"
	"github.com/assetgrid/assetgrid/internal/rbac"
	"github.com/assetgrid/assetgrid/internal/shared"
	"github.com/assetgrid/assetgrid/internal/users"
	"github.com/assetgrid/assetgrid/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	AuthHandler     *authn.Handler
	RBACHandler     *rbac.Handler
	UsersHandler    *users.Handler
	AssetsHandler   *assets.Handler
	LicensesHandler *licenses.Handler
	JobHandler      *jobs.Handler
	RBACMiddleware  rbac.Middleware
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with AssetGrid defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(LoginRateLimiter(params.Config)).Group(func(r chi.Router) {
				params.AuthHandler.MountLoginRoutes(r)
			})
			params.AuthHandler.MountLogoutRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(params.RBACMiddleware.Authenticate)
				params.AuthHandler.MountProtectedRoutes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(params.RBACMiddleware.Authenticate)

			params.RBACHandler.MountRoutes(r)
			r.Route("/users", func(r chi.Router) {
				params.UsersHandler.MountRoutes(r)
			})
			r.Route("/devices", func(r chi.Router) {
				params.AssetsHandler.MountRoutes(r)
			})
			r.Route("/licenses", func(r chi.Router) {
				params.LicensesHandler.MountRoutes(r)
			})
			if params.JobHandler != nil {
				r.Route("/jobs", func(r chi.Router) {
					r.Use(params.RBACMiddleware.RequireAny(shared.PermRolesRead, shared.PermUsersManageRoles))
					params.JobHandler.MountRoutes(r)
				})
			}
		})
	})

	return r
}
