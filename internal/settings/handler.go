package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lanhub-app/lanhub/internal/platform/httpx"
	"github.com/lanhub-app/lanhub/internal/rbac"
	"github.com/lanhub-app/lanhub/internal/shared"
)

// Handler serves the admin settings form endpoints.
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

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(rbac.PermSettingsView))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(rbac.PermSettingsEdit))
		r.Put("/", h.save)
		r.Post("/{key}/reset", h.reset)
	})
}

type categoryPayload struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Settings []Setting `json:"settings"`
}

var categoryTitler = cases.Title(language.English)

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ByCategory(r.Context())
	if err != nil {
		h.logger.Error("list settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payload := make([]categoryPayload, 0, len(categories))
	for _, cat := range categories {
		payload = append(payload, categoryPayload{
			Name:     cat.Name,
			Label:    categoryTitler.String(cat.Name),
			Settings: cat.Settings,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": payload})
}

type savePayload struct {
	Values map[string]string `json:"values"`
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var payload savePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "request body must be a JSON object of values")
		return
	}
	if len(payload.Values) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "no values supplied")
		return
	}

	invalid, err := h.service.SetMany(r.Context(), payload.Values)
	if err != nil {
		h.logger.Error("save settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if len(invalid) > 0 {
		fields := make(map[string]string, len(invalid))
		for key, ferr := range invalid {
			fields[key] = ferr.Error()
		}
		httpx.ProblemFields(w, http.StatusBadRequest, "Validation Failed", fields)
		return
	}

	if principal, ok := rbac.PrincipalFromContext(r.Context()); ok {
		if err := h.audit.Record(r.Context(), shared.AuditEntry{
			ActorID:  principal.ID,
			Action:   "updated",
			Resource: "settings",
			Details:  "bulk update",
		}); err != nil {
			h.logger.Warn("audit settings update", slog.Any("error", err))
		}
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"saved": len(payload.Values)})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	setting, err := h.service.Reset(r.Context(), key)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	if principal, ok := rbac.PrincipalFromContext(r.Context()); ok {
		if err := h.audit.Record(r.Context(), shared.AuditEntry{
			ActorID:  principal.ID,
			Action:   "reset",
			Resource: "settings",
			Details:  "key=" + key,
		}); err != nil {
			h.logger.Warn("audit settings reset", slog.Any("error", err))
		}
	}

	httpx.JSON(w, http.StatusOK, setting)
}
