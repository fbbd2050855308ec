package users

import "time"

// User represents an account managed through the admin panel. IsAdmin is the
// guard bypass flag, not a role; RoleID is nil for users without a role.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	IsAdmin      bool       `json:"is_admin"`
	RoleID       *int64     `json:"role_id"`
	Theme        string     `json:"theme"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Themes accepted by the theme endpoint.
var ValidThemes = map[string]bool{
	"light":    true,
	"dark":     true,
	"terminal": true,
}
