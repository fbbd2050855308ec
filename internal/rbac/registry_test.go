package rbac

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryContainsDeclaredPermissions(t *testing.T) {
	registry := NewRegistry()

	for _, name := range []string{
		PermAdminFullAccess, PermDashboardView,
		PermUsersView, PermUsersCreate, PermUsersEdit, PermUsersDelete,
		PermRolesView, PermRolesCreate, PermRolesEdit, PermRolesDelete,
		PermSettingsView, PermSettingsEdit, PermAuditView,
	} {
		assert.True(t, registry.Exists(name), name)
		desc, ok := registry.Describe(name)
		require.True(t, ok)
		assert.NotEmpty(t, desc)
	}

	assert.False(t, registry.Exists("made.up"))
	assert.False(t, registry.Exists(""))
}

func TestRegistryAllSortedAndComplete(t *testing.T) {
	registry := NewRegistry()
	all := registry.All()

	require.Len(t, all, len(builtinPermissions))
	assert.True(t, sort.SliceIsSorted(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	}))

	// Repeated calls must agree, the registry is immutable after start.
	assert.Equal(t, all, registry.All())
}
