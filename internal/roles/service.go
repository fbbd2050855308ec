package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/lanhub-app/lanhub/internal/rbac"
	"github.com/lanhub-app/lanhub/internal/shared"
)

// Service handles role business logic. Every permission reference is checked
// against the code registry before touching the store.
type Service struct {
	repo     Repository
	registry *rbac.Registry
}

// NewService builds a Service instance.
func NewService(repo Repository, registry *rbac.Registry) *Service {
	return &Service{repo: repo, registry: registry}
}

// List returns all roles ordered by name.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Get fetches a role by ID.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	if id <= 0 {
		return Role{}, fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
	}
	return s.repo.Get(ctx, id)
}

// Create inserts a new role with the given permission names.
func (s *Service) Create(ctx context.Context, name, description string, permissions []string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", shared.ErrValidation)
	}
	perms, err := s.checkPermissions(permissions)
	if err != nil {
		return Role{}, err
	}
	return s.repo.Create(ctx, name, strings.TrimSpace(description), perms)
}

// Update renames a role.
func (s *Service) Update(ctx context.Context, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", shared.ErrValidation)
	}
	return s.repo.Update(ctx, id, name, strings.TrimSpace(description))
}

// AssignPermission adds a permission to the role; assigning one the role
// already holds is a no-op.
func (s *Service) AssignPermission(ctx context.Context, roleID int64, permission string) error {
	if !s.registry.Exists(permission) {
		return fmt.Errorf("%q: %w", permission, shared.ErrUnknownPermission)
	}
	return s.repo.AssignPermission(ctx, roleID, permission)
}

// RevokePermission removes a permission from the role; revoking one the role
// does not hold is a no-op.
func (s *Service) RevokePermission(ctx context.Context, roleID int64, permission string) error {
	if !s.registry.Exists(permission) {
		return fmt.Errorf("%q: %w", permission, shared.ErrUnknownPermission)
	}
	return s.repo.RevokePermission(ctx, roleID, permission)
}

// SetPermissions replaces the role's permission set.
func (s *Service) SetPermissions(ctx context.Context, roleID int64, permissions []string) error {
	perms, err := s.checkPermissions(permissions)
	if err != nil {
		return err
	}
	return s.repo.SetPermissions(ctx, roleID, perms)
}

// Delete removes a role. When the role is still referenced by users the
// delete fails with ErrInUse unless reassignTo names a replacement role, in
// which case referencing users are repointed atomically first.
func (s *Service) Delete(ctx context.Context, id int64, reassignTo *int64) error {
	if reassignTo != nil {
		if *reassignTo == id {
			return fmt.Errorf("%w: reassignment target must be a different role", shared.ErrValidation)
		}
		if _, err := s.repo.Get(ctx, *reassignTo); err != nil {
			return err
		}
		return s.repo.DeleteReassign(ctx, id, *reassignTo)
	}
	count, err := s.repo.UserCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("role %d has %d assigned users: %w", id, count, shared.ErrInUse)
	}
	return s.repo.Delete(ctx, id)
}

// checkPermissions validates names against the registry and deduplicates.
func (s *Service) checkPermissions(permissions []string) ([]string, error) {
	seen := make(map[string]struct{}, len(permissions))
	out := make([]string, 0, len(permissions))
	for _, perm := range permissions {
		perm = strings.TrimSpace(perm)
		if perm == "" {
			continue
		}
		if !s.registry.Exists(perm) {
			return nil, fmt.Errorf("%q: %w", perm, shared.ErrUnknownPermission)
		}
		if _, ok := seen[perm]; ok {
			continue
		}
		seen[perm] = struct{}{}
		out = append(out, perm)
	}
	return out, nil
}
