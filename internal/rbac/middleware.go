package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/lanhub-app/lanhub/internal/platform/httpx"
	"github.com/lanhub-app/lanhub/internal/shared"
)

// PrincipalSource resolves the guard-facing principal for a user ID.
type PrincipalSource interface {
	PrincipalByID(ctx context.Context, userID int64) (Principal, error)
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal placed by Authenticate.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// Middleware wires authentication and authorization for HTTP handlers.
type Middleware struct {
	Guard      *Guard
	Principals PrincipalSource
	Logger     *slog.Logger

	// OnDeny, when set, is invoked with the permission name for every
	// denial issued by Require. Feeds the denial counter metric.
	OnDeny func(permission string)
}

// Authenticate resolves the session user into a Principal and stores it in
// the request context. Anonymous requests pass through without a principal;
// Require and RequireAdmin reject them later.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.UserID() == 0 {
			next.ServeHTTP(w, r)
			return
		}
		principal, err := m.Principals.PrincipalByID(r.Context(), sess.UserID())
		if err != nil {
			// Stale session for a deleted user: continue anonymous.
			if m.Logger != nil {
				m.Logger.Warn("resolve principal", slog.Int64("user_id", sess.UserID()), slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

// Require gates the wrapped handler behind a permission. On denial the
// handler never executes and the client receives a 403 problem response;
// unauthenticated requests receive 401.
func (m Middleware) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrInvalidCredentials)
				return
			}
			decision, err := m.Guard.Check(r.Context(), principal, permission)
			if err != nil && m.Logger != nil {
				m.Logger.Error("access check", slog.String("permission", permission), slog.Any("error", err))
			}
			if !decision.Allowed() {
				if m.OnDeny != nil {
					m.OnDeny(permission)
				}
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates the wrapped handler behind the admin bypass flag.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			httpx.RespondError(w, shared.ErrInvalidCredentials)
			return
		}
		if !principal.Active || !principal.IsAdmin {
			httpx.RespondError(w, shared.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthenticated only demands a logged-in, active principal.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok || !principal.Active {
			httpx.RespondError(w, shared.ErrInvalidCredentials)
			return
		}
		next.ServeHTTP(w, r)
	})
}
