package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lanhub-app/lanhub/internal/audit"
	"github.com/lanhub-app/lanhub/internal/auth"
	"github.com/lanhub-app/lanhub/internal/menu"
	"github.com/lanhub-app/lanhub/internal/observability"
	"github.com/lanhub-app/lanhub/internal/platform/httpx"
	"github.com/lanhub-app/lanhub/internal/rbac"
	"github.com/lanhub-app/lanhub/internal/roles"
	"github.com/lanhub-app/lanhub/internal/settings"
	"github.com/lanhub-app/lanhub/internal/shared"
	"github.com/lanhub-app/lanhub/internal/system"
	"github.com/lanhub-app/lanhub/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Settings       *settings.Service
	Pool           *pgxpool.Pool
	RBACMiddleware rbac.Middleware

	AuditService *audit.Service

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *rbac.Handler
	SettingsHandler    *settings.Handler
	MenuHandler        *menu.Handler
	AuditHandler       *audit.Handler
	SystemHandler      *system.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with LanHub defaults.
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

	r.Route("/api", func(r chi.Router) {
		r.Use(params.RBACMiddleware.Authenticate)

		// Login and logout stay reachable during maintenance.
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(MaintenanceGuard(params.Settings, params.Logger))

			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/profile", params.UsersHandler.MountProfileRoutes)
			r.Route("/roles", params.RolesHandler.MountRoutes)
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
			r.Route("/settings", params.SettingsHandler.MountRoutes)
			r.Route("/menu", params.MenuHandler.MountRoutes)
			r.Route("/audit", params.AuditHandler.MountRoutes)

			r.Route("/system", func(r chi.Router) {
				r.Use(params.RBACMiddleware.Require(rbac.PermAdminFullAccess))
				params.SystemHandler.MountRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(params.RBACMiddleware.Require(rbac.PermDashboardView))
				r.Get("/dashboard", dashboardHandler(params.Logger, params.Pool, params.Settings, params.AuditService))
			})
		})
	})

	return r
}

type dashboardStats struct {
	TotalUsers     int                 `json:"total_users"`
	ActiveUsers    int                 `json:"active_users"`
	TotalRoles     int                 `json:"total_roles"`
	SiteName       string              `json:"site_name"`
	Maintenance    bool                `json:"maintenance_mode"`
	RecentActivity []shared.AuditEntry `json:"recent_activity"`
}

func dashboardHandler(logger *slog.Logger, pool *pgxpool.Pool, st *settings.Service, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const query = `
			SELECT
				(SELECT count(*) FROM users),
				(SELECT count(*) FROM users WHERE is_active),
				(SELECT count(*) FROM roles)`
		var stats dashboardStats
		if err := pool.QueryRow(r.Context(), query).Scan(&stats.TotalUsers, &stats.ActiveUsers, &stats.TotalRoles); err != nil {
			logger.Error("load dashboard stats", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not load dashboard stats")
			return
		}
		stats.SiteName = st.String(r.Context(), "app.site_name", "LanHub")
		stats.Maintenance = st.Bool(r.Context(), "app.maintenance_mode", false)
		stats.RecentActivity = []shared.AuditEntry{}
		if auditSvc != nil {
			recent, err := auditSvc.Timeline(r.Context(), audit.Filters{}, 1, 5)
			if err != nil {
				logger.Warn("load recent activity", slog.Any("error", err))
			} else if recent.Entries != nil {
				stats.RecentActivity = recent.Entries
			}
		}
		httpx.JSON(w, http.StatusOK, stats)
	}
}
