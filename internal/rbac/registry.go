package rbac

import "sort"

// Permission names recognised by the application. Adding one is a code
// change; the database mirror only exists so the admin UI can render
// assignment checkboxes.
const (
	PermAdminFullAccess = "admin.full_access"

	PermDashboardView = "dashboard.view"

	PermUsersView   = "users.view"
	PermUsersCreate = "users.create"
	PermUsersEdit   = "users.edit"
	PermUsersDelete = "users.delete"

	PermRolesView   = "roles.view"
	PermRolesCreate = "roles.create"
	PermRolesEdit   = "roles.edit"
	PermRolesDelete = "roles.delete"

	PermSettingsView = "settings.view"
	PermSettingsEdit = "settings.edit"

	PermAuditView = "audit.view"
)

var builtinPermissions = map[string]string{
	PermAdminFullAccess: "Full admin panel access",
	PermDashboardView:   "View dashboard",
	PermUsersView:       "View user list",
	PermUsersCreate:     "Create users",
	PermUsersEdit:       "Edit users",
	PermUsersDelete:     "Delete users",
	PermRolesView:       "View roles",
	PermRolesCreate:     "Create roles",
	PermRolesEdit:       "Edit roles",
	PermRolesDelete:     "Delete roles",
	PermSettingsView:    "View settings",
	PermSettingsEdit:    "Edit settings",
	PermAuditView:       "View audit log",
}

// Registry is the closed universe of permission names. It is built once at
// process start and never mutated afterwards, so concurrent reads need no
// synchronisation and code guards can never drift from stored names.
type Registry struct {
	perms map[string]string
	names []string
}

// NewRegistry builds the registry from the code-declared permission set.
func NewRegistry() *Registry {
	perms := make(map[string]string, len(builtinPermissions))
	names := make([]string, 0, len(builtinPermissions))
	for name, desc := range builtinPermissions {
		perms[name] = desc
		names = append(names, name)
	}
	sort.Strings(names)
	return &Registry{perms: perms, names: names}
}

// Exists reports whether name is a recognised permission.
func (r *Registry) Exists(name string) bool {
	_, ok := r.perms[name]
	return ok
}

// All returns every permission ordered by name.
func (r *Registry) All() []Permission {
	out := make([]Permission, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, Permission{Name: name, Description: r.perms[name]})
	}
	return out
}

// Describe returns the human description for a permission name.
func (r *Registry) Describe(name string) (string, bool) {
	desc, ok := r.perms[name]
	return desc, ok
}
