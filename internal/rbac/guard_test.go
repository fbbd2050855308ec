package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPermissionSource struct {
	grants map[int64]map[string]bool
	err    error
	calls  int
}

func (m *mockPermissionSource) RoleHasPermission(ctx context.Context, roleID int64, permission string) (bool, error) {
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	return m.grants[roleID][permission], nil
}

func roleID(id int64) *int64 {
	return &id
}

func TestGuardAdminBypass(t *testing.T) {
	source := &mockPermissionSource{err: errors.New("role data corrupt")}
	guard := NewGuard(source)
	admin := Principal{ID: 1, Active: true, IsAdmin: true}

	// The bypass must short-circuit before any role lookup, for every
	// permission name including unknown and malformed ones.
	for _, perm := range []string{PermUsersDelete, "nonexistent.permission", "", "!!not-a-perm"} {
		decision, err := guard.Check(context.Background(), admin, perm)
		require.NoError(t, err)
		assert.Equal(t, Allow, decision, "permission %q", perm)
	}
	assert.Zero(t, source.calls, "admin check must not consult role data")
}

func TestGuardNoRoleDenies(t *testing.T) {
	guard := NewGuard(&mockPermissionSource{})
	p := Principal{ID: 2, Active: true}

	for _, perm := range []string{PermDashboardView, PermUsersView, "anything.at.all"} {
		decision, err := guard.Check(context.Background(), p, perm)
		require.NoError(t, err)
		assert.Equal(t, Deny, decision)
	}
}

func TestGuardInactiveDenies(t *testing.T) {
	source := &mockPermissionSource{grants: map[int64]map[string]bool{7: {PermUsersView: true}}}
	guard := NewGuard(source)

	inactive := Principal{ID: 3, Active: false, RoleID: roleID(7)}
	decision, err := guard.Check(context.Background(), inactive, PermUsersView)
	require.NoError(t, err)
	assert.Equal(t, Deny, decision)

	inactiveAdmin := Principal{ID: 4, Active: false, IsAdmin: true}
	decision, err = guard.Check(context.Background(), inactiveAdmin, PermUsersView)
	require.NoError(t, err)
	assert.Equal(t, Deny, decision)
}

func TestGuardRoleMembership(t *testing.T) {
	source := &mockPermissionSource{grants: map[int64]map[string]bool{
		7: {PermUsersView: true, PermDashboardView: true},
	}}
	guard := NewGuard(source)
	p := Principal{ID: 5, Active: true, RoleID: roleID(7)}

	decision, err := guard.Check(context.Background(), p, PermUsersView)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision)

	decision, err = guard.Check(context.Background(), p, PermUsersDelete)
	require.NoError(t, err)
	assert.Equal(t, Deny, decision)
}

func TestGuardFailsClosedOnLookupError(t *testing.T) {
	source := &mockPermissionSource{err: errors.New("connection lost")}
	guard := NewGuard(source)
	p := Principal{ID: 6, Active: true, RoleID: roleID(7)}

	decision, err := guard.Check(context.Background(), p, PermUsersView)
	require.Error(t, err)
	assert.Equal(t, Deny, decision)
}
