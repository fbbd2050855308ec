package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lanhub-app/lanhub/internal/platform/httpx"
)

// Handler exposes the permission registry to the admin UI.
type Handler struct {
	logger   *slog.Logger
	registry *Registry
	mw       Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, registry *Registry, mw Middleware) *Handler {
	return &Handler{logger: logger, registry: registry, mw: mw}
}

// MountRoutes registers permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(PermRolesView))
		r.Get("/", h.list)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": h.registry.All()})
}
