package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lanhub-app/lanhub/internal/platform/httpx"
	"github.com/lanhub-app/lanhub/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	audit          *shared.AuditLogger
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, audit *shared.AuditLogger) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		audit:          audit,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/session", h.handleSession)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "username and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "session unavailable")
		return
	}
	// Fresh session ID on privilege change.
	if err := h.sessionManager.Rotate(r.Context(), sess); err != nil {
		h.logger.Error("rotate session", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "session unavailable")
		return
	}
	sess.SetUser(user.ID)

	csrfToken, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Warn("ensure csrf token", "error", err)
	}

	if err := h.audit.Record(r.Context(), shared.AuditEntry{
		ActorID:   user.ID,
		Action:    "login",
		Resource:  "auth",
		IPAddress: r.RemoteAddr,
	}); err != nil {
		h.logger.Warn("record login audit", "error", err)
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"is_admin": user.IsAdmin,
			"theme":    user.Theme,
		},
		"csrf_token": csrfToken,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if userID := sess.UserID(); userID != 0 {
			if err := h.audit.Record(r.Context(), shared.AuditEntry{
				ActorID:   userID,
				Action:    "logout",
				Resource:  "auth",
				IPAddress: r.RemoteAddr,
			}); err != nil {
				h.logger.Warn("record logout audit", "error", err)
			}
		}
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "logged_out"})
}

// handleSession reports whether the caller is logged in, for the UI to
// decide between the login screen and the app shell.
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.UserID() == 0 {
		httpx.JSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	csrfToken, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Warn("ensure csrf token", "error", err)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user_id":       sess.UserID(),
		"csrf_token":    csrfToken,
	})
}
