package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lanhub-app/lanhub/internal/platform/httpx"
	"github.com/lanhub-app/lanhub/internal/rbac"
	"github.com/lanhub-app/lanhub/internal/shared"
)

// Handler serves user management and profile endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	audit    *shared.AuditLogger
	mw       rbac.Middleware
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, audit: audit, mw: mw, validate: validator.New()}
}

// MountRoutes registers admin user-management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(rbac.PermUsersView))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(rbac.PermUsersCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(rbac.PermUsersEdit))
		r.Put("/{id}", h.update)
		r.Post("/{id}/toggle", h.toggle)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(rbac.PermUsersDelete))
		r.Delete("/{id}", h.delete)
	})
}

// MountProfileRoutes registers self-service endpoints for any logged-in user.
func (h *Handler) MountProfileRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuthenticated)
		r.Post("/password", h.changePassword)
		r.Post("/theme", h.setTheme)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := shared.NewPagination(page, perPage, 0)

	items, total, err := h.service.List(r.Context(), r.URL.Query().Get("search"), pagination)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"users":      items,
		"pagination": shared.NewPagination(pagination.Page, pagination.PerPage, total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed user payload")
		return
	}
	if fields := h.fieldErrors(in); fields != nil {
		httpx.ProblemFields(w, http.StatusBadRequest, "Validation Failed", fields)
		return
	}
	user, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "created", user.ID, "username="+user.Username)
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed user payload")
		return
	}
	if fields := h.fieldErrors(in); fields != nil {
		httpx.ProblemFields(w, http.StatusBadRequest, "Validation Failed", fields)
		return
	}
	user, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "updated", user.ID, "username="+user.Username)
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	user, err := h.service.Toggle(r.Context(), id, principal.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	action := "deactivated"
	if user.IsActive {
		action = "activated"
	}
	h.record(r, action, user.ID, "username="+user.Username)
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), id, principal.ID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "deleted", id, "")
	w.WriteHeader(http.StatusNoContent)
}

type changePasswordPayload struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var payload changePasswordPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed payload")
		return
	}
	if payload.NewPassword != payload.ConfirmPassword {
		httpx.ProblemFields(w, http.StatusBadRequest, "Validation Failed",
			map[string]string{"confirm_password": "passwords do not match"})
		return
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.ChangePassword(r.Context(), principal.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "password updated"})
}

type themePayload struct {
	Theme string `json:"theme"`
}

func (h *Handler) setTheme(w http.ResponseWriter, r *http.Request) {
	var payload themePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed payload")
		return
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.SetTheme(r.Context(), principal.ID, payload.Theme); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"theme": payload.Theme})
}

func (h *Handler) fieldErrors(in any) map[string]string {
	err := h.validate.Struct(in)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"general": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = "failed " + fe.Tag() + " validation"
	}
	return fields
}

func (h *Handler) record(r *http.Request, action string, userID int64, details string) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		return
	}
	if err := h.audit.Record(r.Context(), shared.AuditEntry{
		ActorID:    principal.ID,
		Action:     action,
		Resource:   "user",
		ResourceID: userID,
		Details:    details,
		IPAddress:  r.RemoteAddr,
	}); err != nil {
		h.logger.Warn("audit user "+action, slog.Any("error", err))
	}
}

func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
