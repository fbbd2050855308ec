package roles

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lanhub-app/lanhub/internal/platform/httpx"
	"github.com/lanhub-app/lanhub/internal/rbac"
	"github.com/lanhub-app/lanhub/internal/shared"
)

// Handler serves role management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	audit   *shared.AuditLogger
	mw      rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, audit: audit, mw: mw}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(rbac.PermRolesView))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(rbac.PermRolesCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(rbac.PermRolesEdit))
		r.Put("/{id}", h.update)
		r.Put("/{id}/permissions", h.setPermissions)
		r.Post("/{id}/permissions/{perm}", h.assignPermission)
		r.Delete("/{id}/permissions/{perm}", h.revokePermission)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(rbac.PermRolesDelete))
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid role id")
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

type rolePayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload rolePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed role payload")
		return
	}
	role, err := h.service.Create(r.Context(), payload.Name, payload.Description, payload.Permissions)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "created", role.ID, "name="+role.Name)
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid role id")
		return
	}
	var payload rolePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed role payload")
		return
	}
	role, err := h.service.Update(r.Context(), id, payload.Name, payload.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "updated", role.ID, "name="+role.Name)
	httpx.JSON(w, http.StatusOK, role)
}

type permissionsPayload struct {
	Permissions []string `json:"permissions"`
}

func (h *Handler) setPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid role id")
		return
	}
	var payload permissionsPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed permissions payload")
		return
	}
	if err := h.service.SetPermissions(r.Context(), id, payload.Permissions); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "updated", id, "permissions replaced")
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) assignPermission(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid role id")
		return
	}
	perm := chi.URLParam(r, "perm")
	if err := h.service.AssignPermission(r.Context(), id, perm); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "updated", id, "assigned "+perm)
	httpx.JSON(w, http.StatusOK, map[string]any{"assigned": perm})
}

func (h *Handler) revokePermission(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid role id")
		return
	}
	perm := chi.URLParam(r, "perm")
	if err := h.service.RevokePermission(r.Context(), id, perm); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "updated", id, "revoked "+perm)
	httpx.JSON(w, http.StatusOK, map[string]any{"revoked": perm})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid role id")
		return
	}
	var reassignTo *int64
	if raw := r.URL.Query().Get("reassign_to"); raw != "" {
		target, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid reassign_to role id")
			return
		}
		reassignTo = &target
	}
	if err := h.service.Delete(r.Context(), id, reassignTo); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "deleted", id, "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) record(r *http.Request, action string, roleID int64, details string) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		return
	}
	if err := h.audit.Record(r.Context(), shared.AuditEntry{
		ActorID:    principal.ID,
		Action:     action,
		Resource:   "role",
		ResourceID: roleID,
		Details:    details,
		IPAddress:  r.RemoteAddr,
	}); err != nil {
		h.logger.Warn("audit role "+action, slog.Any("error", err))
	}
}

func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
