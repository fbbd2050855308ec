package roles

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanhub-app/lanhub/internal/rbac"
	"github.com/lanhub-app/lanhub/internal/shared"
)

type mockRepository struct {
	roles      map[int64]*Role
	names      map[string]int64
	userCounts map[int64]int
	nextID     int64

	deleteErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		roles:      make(map[int64]*Role),
		names:      make(map[string]int64),
		userCounts: make(map[int64]int),
		nextID:     1,
	}
}

func (m *mockRepository) List(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
	}
	role := *r
	role.UserCount = m.userCounts[id]
	return role, nil
}

func (m *mockRepository) Create(ctx context.Context, name, description string, permissions []string) (Role, error) {
	if _, taken := m.names[name]; taken {
		return Role{}, fmt.Errorf("role %q: %w", name, shared.ErrDuplicateName)
	}
	id := m.nextID
	m.nextID++
	role := &Role{
		ID:          id,
		Name:        name,
		Description: description,
		Permissions: append([]string{}, permissions...),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.roles[id] = role
	m.names[name] = id
	return *role, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, name, description string) (Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
	}
	if existing, taken := m.names[name]; taken && existing != id {
		return Role{}, fmt.Errorf("role %q: %w", name, shared.ErrDuplicateName)
	}
	delete(m.names, r.Name)
	r.Name = name
	r.Description = description
	m.names[name] = id
	return *r, nil
}

func (m *mockRepository) AssignPermission(ctx context.Context, roleID int64, permission string) error {
	r, ok := m.roles[roleID]
	if !ok {
		return fmt.Errorf("role %d: %w", roleID, shared.ErrNotFound)
	}
	for _, p := range r.Permissions {
		if p == permission {
			return nil
		}
	}
	r.Permissions = append(r.Permissions, permission)
	return nil
}

func (m *mockRepository) RevokePermission(ctx context.Context, roleID int64, permission string) error {
	r, ok := m.roles[roleID]
	if !ok {
		return fmt.Errorf("role %d: %w", roleID, shared.ErrNotFound)
	}
	kept := r.Permissions[:0]
	for _, p := range r.Permissions {
		if p != permission {
			kept = append(kept, p)
		}
	}
	r.Permissions = kept
	return nil
}

func (m *mockRepository) SetPermissions(ctx context.Context, roleID int64, permissions []string) error {
	r, ok := m.roles[roleID]
	if !ok {
		return fmt.Errorf("role %d: %w", roleID, shared.ErrNotFound)
	}
	r.Permissions = append([]string{}, permissions...)
	return nil
}

func (m *mockRepository) UserCount(ctx context.Context, roleID int64) (int, error) {
	return m.userCounts[roleID], nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	r, ok := m.roles[id]
	if !ok {
		return fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
	}
	delete(m.names, r.Name)
	delete(m.roles, id)
	return nil
}

func (m *mockRepository) DeleteReassign(ctx context.Context, id, targetID int64) error {
	if _, ok := m.roles[targetID]; !ok {
		return fmt.Errorf("role %d: %w", targetID, shared.ErrNotFound)
	}
	m.userCounts[targetID] += m.userCounts[id]
	m.userCounts[id] = 0
	return m.Delete(ctx, id)
}

// RoleHasPermission lets the mock double as the guard's permission source.
func (m *mockRepository) RoleHasPermission(ctx context.Context, roleID int64, permission string) (bool, error) {
	r, ok := m.roles[roleID]
	if !ok {
		return false, nil
	}
	for _, p := range r.Permissions {
		if p == permission {
			return true, nil
		}
	}
	return false, nil
}

func newService(repo *mockRepository) *Service {
	return NewService(repo, rbac.NewRegistry())
}

func TestCreateRole(t *testing.T) {
	repo := newMockRepository()
	svc := newService(repo)
	ctx := context.Background()

	role, err := svc.Create(ctx, "Editors", "Content editors", []string{rbac.PermUsersView, rbac.PermUsersView, rbac.PermUsersEdit})
	require.NoError(t, err)
	assert.Equal(t, "Editors", role.Name)
	assert.Equal(t, []string{rbac.PermUsersView, rbac.PermUsersEdit}, role.Permissions, "duplicates collapse")

	_, err = svc.Create(ctx, "Editors", "again", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrDuplicateName))

	_, err = svc.Create(ctx, "Ghosts", "", []string{"spooky.fly"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrUnknownPermission))

	_, err = svc.Create(ctx, "   ", "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestAssignRevokeDrivesGuardDecision(t *testing.T) {
	repo := newMockRepository()
	svc := newService(repo)
	guard := rbac.NewGuard(repo)
	ctx := context.Background()

	role, err := svc.Create(ctx, "Viewers", "", nil)
	require.NoError(t, err)
	principal := rbac.Principal{ID: 10, Active: true, RoleID: &role.ID}

	decision, err := guard.Check(ctx, principal, rbac.PermUsersView)
	require.NoError(t, err)
	assert.Equal(t, rbac.Deny, decision)

	require.NoError(t, svc.AssignPermission(ctx, role.ID, rbac.PermUsersView))
	decision, err = guard.Check(ctx, principal, rbac.PermUsersView)
	require.NoError(t, err)
	assert.Equal(t, rbac.Allow, decision)

	require.NoError(t, svc.RevokePermission(ctx, role.ID, rbac.PermUsersView))
	decision, err = guard.Check(ctx, principal, rbac.PermUsersView)
	require.NoError(t, err)
	assert.Equal(t, rbac.Deny, decision)
}

func TestAssignRevokeIdempotent(t *testing.T) {
	repo := newMockRepository()
	svc := newService(repo)
	ctx := context.Background()

	role, err := svc.Create(ctx, "Ops", "", []string{rbac.PermSettingsView})
	require.NoError(t, err)

	require.NoError(t, svc.AssignPermission(ctx, role.ID, rbac.PermSettingsEdit))
	require.NoError(t, svc.AssignPermission(ctx, role.ID, rbac.PermSettingsEdit))
	got, err := svc.Get(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{rbac.PermSettingsView, rbac.PermSettingsEdit}, got.Permissions)

	require.NoError(t, svc.RevokePermission(ctx, role.ID, rbac.PermSettingsEdit))
	require.NoError(t, svc.RevokePermission(ctx, role.ID, rbac.PermSettingsEdit))
	got, err = svc.Get(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{rbac.PermSettingsView}, got.Permissions)

	err = svc.AssignPermission(ctx, role.ID, "not.registered")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrUnknownPermission))
}

func TestDeleteInUse(t *testing.T) {
	repo := newMockRepository()
	svc := newService(repo)
	ctx := context.Background()

	role, err := svc.Create(ctx, "Staff", "", []string{rbac.PermDashboardView})
	require.NoError(t, err)
	repo.userCounts[role.ID] = 3

	err = svc.Delete(ctx, role.ID, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInUse))

	// Role and its links must be unchanged after the refused delete.
	got, err := svc.Get(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.UserCount)
	assert.Equal(t, []string{rbac.PermDashboardView}, got.Permissions)
}

func TestDeleteConcurrentAssignmentRefused(t *testing.T) {
	repo := newMockRepository()
	svc := newService(repo)
	ctx := context.Background()

	role, err := svc.Create(ctx, "Staff", "", nil)
	require.NoError(t, err)

	// The count read zero, but a user grabbed the role before the delete
	// statement ran; the restricting foreign key surfaces as ErrInUse.
	repo.deleteErr = fmt.Errorf("role %d still has assigned users: %w", role.ID, shared.ErrInUse)

	err = svc.Delete(ctx, role.ID, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInUse))

	repo.deleteErr = nil
	got, err := svc.Get(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, role.ID, got.ID, "refused delete leaves the role in place")
}

func TestDeleteWithReassignment(t *testing.T) {
	repo := newMockRepository()
	svc := newService(repo)
	ctx := context.Background()

	old, err := svc.Create(ctx, "Old Guard", "", nil)
	require.NoError(t, err)
	target, err := svc.Create(ctx, "New Guard", "", nil)
	require.NoError(t, err)
	repo.userCounts[old.ID] = 2

	require.NoError(t, svc.Delete(ctx, old.ID, &target.ID))

	_, err = svc.Get(ctx, old.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	got, err := svc.Get(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UserCount)

	// Reassigning a role to itself is rejected up front.
	err = svc.Delete(ctx, target.ID, &target.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}
