package rbac

// Permission is a named capability. Names follow the dotted-namespace
// convention, e.g. "users.create".
type Permission struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Decision is the outcome of an access check.
type Decision int

const (
	// Deny blocks the guarded operation.
	Deny Decision = iota
	// Allow permits the guarded operation.
	Allow
)

// Allowed reports whether the decision permits the operation.
func (d Decision) Allowed() bool {
	return d == Allow
}

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Principal is the guard-facing projection of an authenticated user. The
// admin flag is an explicit bypass checked before any role data is touched;
// it is not a role and never materialises as permission-set membership.
type Principal struct {
	ID      int64
	Active  bool
	IsAdmin bool
	RoleID  *int64
}
