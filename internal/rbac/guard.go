package rbac

import (
	"context"
	"fmt"
)

// PermissionSource resolves whether a role currently holds a permission.
// Reads are over committed state; implementations must not cache across
// requests.
type PermissionSource interface {
	RoleHasPermission(ctx context.Context, roleID int64, permission string) (bool, error)
}

// Guard is the single decision point for both operation gating and UI
// filtering. It performs no logging and no writes, so the same logic backs
// "can see the button" and "can perform the action".
type Guard struct {
	source PermissionSource
}

// NewGuard constructs a Guard over the given permission source.
func NewGuard(source PermissionSource) *Guard {
	return &Guard{source: source}
}

// Check decides whether the principal may exercise the permission.
//
// Order matters: the admin bypass short-circuits before any role lookup, so
// it stays correct even when role data is missing or corrupt and for
// permission names outside the registry. A principal without a role is
// denied, and any lookup failure denies rather than allows; the error is
// returned alongside so callers can log it.
func (g *Guard) Check(ctx context.Context, p Principal, permission string) (Decision, error) {
	if !p.Active {
		return Deny, nil
	}
	if p.IsAdmin {
		return Allow, nil
	}
	if p.RoleID == nil {
		return Deny, nil
	}
	held, err := g.source.RoleHasPermission(ctx, *p.RoleID, permission)
	if err != nil {
		return Deny, fmt.Errorf("rbac: role permission lookup: %w", err)
	}
	if held {
		return Allow, nil
	}
	return Deny, nil
}
