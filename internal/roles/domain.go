package roles

import "time"

// Role bundles permissions under a name. Permissions holds the deduplicated
// permission names currently assigned; users reference roles, they never own
// them.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	UserCount   int       `json:"user_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
