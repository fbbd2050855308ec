package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lanhub-app/lanhub/internal/platform/httpx"
	"github.com/lanhub-app/lanhub/internal/rbac"
)

// Handler exposes the audit timeline to administrators.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(rbac.PermAuditView))
		r.Get("/", h.timeline)
	})
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := Filters{
		Action:   q.Get("action"),
		Resource: q.Get("resource"),
	}
	if raw := q.Get("actor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "actor_id must be an integer")
			return
		}
		filters.ActorID = id
	}
	for name, dest := range map[string]*time.Time{"from": &filters.From, "to": &filters.To} {
		if raw := q.Get(name); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Invalid Request", name+" must be an RFC 3339 timestamp")
				return
			}
			*dest = ts
		}
	}
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("per_page"))

	result, err := h.service.Timeline(r.Context(), filters, page, pageSize)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries":    result.Entries,
		"pagination": result.Pagination,
	})
}
