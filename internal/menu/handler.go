package menu

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lanhub-app/lanhub/internal/platform/httpx"
	"github.com/lanhub-app/lanhub/internal/rbac"
	"github.com/lanhub-app/lanhub/internal/shared"
)

// Handler serves the resolved navigation for the current user.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers menu routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuthenticated)
		r.Get("/", h.resolve)
	})
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	items, err := h.service.Resolve(r.Context(), principal)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}
