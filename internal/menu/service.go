package menu

import (
	"context"
	"log/slog"
	"sort"

	"github.com/lanhub-app/lanhub/internal/rbac"
	"github.com/lanhub-app/lanhub/internal/settings"
)

// Service resolves the navigation for a principal: the stored layout
// filtered down to the items the principal may see. Items the principal
// lacks the permission for are omitted entirely, never rendered disabled.
type Service struct {
	settings *settings.Service
	guard    *rbac.Guard
	logger   *slog.Logger
}

func NewService(st *settings.Service, guard *rbac.Guard, logger *slog.Logger) *Service {
	svc := &Service{settings: st, guard: guard, logger: logger}
	st.RegisterSchema(LayoutKey, ValidateLayout)
	return svc
}

// Resolve returns the menu items visible to p, sorted by Order. Items
// sharing an Order value keep their stored layout position. An
// unreadable layout yields an empty menu, not an error, so a bad
// setting never takes navigation down with it.
func (s *Service) Resolve(ctx context.Context, p rbac.Principal) ([]Item, error) {
	var layout []Item
	if err := s.settings.JSON(ctx, LayoutKey, &layout); err != nil {
		s.logger.Warn("menu layout unreadable, serving empty menu", "key", LayoutKey, "error", err)
		return []Item{}, nil
	}

	visible := make([]Item, 0, len(layout))
	for _, item := range layout {
		if item.Permission != "" {
			decision, err := s.guard.Check(ctx, p, item.Permission)
			if err != nil {
				s.logger.Warn("menu permission check failed, hiding item",
					"route", item.Route, "permission", item.Permission, "error", err)
				continue
			}
			if !decision.Allowed() {
				continue
			}
		}
		visible = append(visible, item)
	}

	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Order < visible[j].Order
	})
	return visible, nil
}
