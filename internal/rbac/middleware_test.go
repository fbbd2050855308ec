package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lanhub-app/lanhub/internal/shared"
)

type mockPrincipalSource struct {
	principals map[int64]Principal
}

func (m *mockPrincipalSource) PrincipalByID(ctx context.Context, userID int64) (Principal, error) {
	p, ok := m.principals[userID]
	if !ok {
		return Principal{}, shared.ErrNotFound
	}
	return p, nil
}

func requestWithPrincipal(p Principal) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	return req.WithContext(ContextWithPrincipal(req.Context(), p))
}

func serveRequire(t *testing.T, mw Middleware, permission string, req *http.Request) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	invoked := false
	handler := mw.Require(permission)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invoked = true
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, invoked
}

func TestRequireDeniedRequestNeverReachesHandler(t *testing.T) {
	var denied []string
	mw := Middleware{
		Guard:  NewGuard(&mockPermissionSource{}),
		OnDeny: func(permission string) { denied = append(denied, permission) },
	}

	rec, invoked := serveRequire(t, mw, PermUsersDelete,
		requestWithPrincipal(Principal{ID: 2, Active: true, RoleID: roleID(9)}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, invoked, "denied request must not reach the handler")
	assert.Equal(t, []string{PermUsersDelete}, denied)
}

func TestRequireAnonymousUnauthorized(t *testing.T) {
	deniedCalls := 0
	mw := Middleware{
		Guard:  NewGuard(&mockPermissionSource{}),
		OnDeny: func(string) { deniedCalls++ },
	}

	rec, invoked := serveRequire(t, mw, PermUsersView,
		httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, invoked)
	assert.Zero(t, deniedCalls, "missing principal is not a permission denial")
}

func TestRequireGrantedRequestReachesHandler(t *testing.T) {
	source := &mockPermissionSource{grants: map[int64]map[string]bool{9: {PermUsersView: true}}}
	mw := Middleware{Guard: NewGuard(source)}

	rec, invoked := serveRequire(t, mw, PermUsersView,
		requestWithPrincipal(Principal{ID: 2, Active: true, RoleID: roleID(9)}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, invoked)
}

func TestRequireAdmin(t *testing.T) {
	mw := Middleware{Guard: NewGuard(&mockPermissionSource{})}
	handlerRuns := 0
	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRuns++
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPrincipal(Principal{ID: 1, Active: true, IsAdmin: true}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, handlerRuns)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPrincipal(Principal{ID: 2, Active: true, RoleID: roleID(9)}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 1, handlerRuns)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPrincipal(Principal{ID: 3, Active: false, IsAdmin: true}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 1, handlerRuns)
}

func TestAuthenticateResolvesSessionUser(t *testing.T) {
	mw := Middleware{
		Guard: NewGuard(&mockPermissionSource{}),
		Principals: &mockPrincipalSource{principals: map[int64]Principal{
			42: {ID: 42, Active: true},
		}},
	}

	var got Principal
	var found bool
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = PrincipalFromContext(r.Context())
	}))

	sess := &shared.Session{ID: "s1"}
	sess.SetUser(42)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, found)
	assert.Equal(t, int64(42), got.ID)

	// A session pointing at a deleted user continues anonymous.
	stale := &shared.Session{ID: "s2"}
	stale.SetUser(7)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), stale))
	found = false
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, found)
}
