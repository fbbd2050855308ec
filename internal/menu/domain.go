package menu

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lanhub-app/lanhub/internal/shared"
)

// LayoutKey is the settings key holding the navigation layout as JSON.
const LayoutKey = "menu.layout"

// Item is a single navigation entry. Permission may be empty, in which
// case the item is visible to every authenticated user.
type Item struct {
	Label      string `json:"label"`
	Route      string `json:"route"`
	Icon       string `json:"icon,omitempty"`
	Permission string `json:"permission,omitempty"`
	Order      int    `json:"order"`
}

// ValidateLayout checks a raw menu.layout payload. It is registered as
// the settings schema validator for LayoutKey so malformed layouts are
// rejected at write time rather than discovered at render time.
func ValidateLayout(raw json.RawMessage) error {
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("%w: %s must be a JSON array of menu items", shared.ErrValidation, LayoutKey)
	}
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.Label) == "" {
			return fmt.Errorf("%w: menu item %d has no label", shared.ErrValidation, i)
		}
		if !strings.HasPrefix(it.Route, "/") {
			return fmt.Errorf("%w: menu item %q route must start with /", shared.ErrValidation, it.Label)
		}
		if _, dup := seen[it.Route]; dup {
			return fmt.Errorf("%w: duplicate menu route %q", shared.ErrValidation, it.Route)
		}
		seen[it.Route] = struct{}{}
	}
	return nil
}
