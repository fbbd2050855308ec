package system

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lanhub-app/lanhub/internal/platform/httpx"
)

// Handler serves the admin database console.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers console routes. Access control is applied by the
// caller; these endpoints expose schema-level detail and belong behind the
// full-access permission.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stats", h.stats)
	r.Get("/activity", h.activity)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.logger.Error("database overview", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) activity(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	points, err := h.service.Activity(r.Context(), days)
	if err != nil {
		h.logger.Error("database activity", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"days": points})
}
