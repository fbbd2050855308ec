package menu

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanhub-app/lanhub/internal/rbac"
	"github.com/lanhub-app/lanhub/internal/settings"
	"github.com/lanhub-app/lanhub/internal/shared"
)

type stubSettings struct {
	values map[string]settings.Setting
}

func (s *stubSettings) Get(ctx context.Context, key string) (settings.Setting, error) {
	setting, ok := s.values[key]
	if !ok {
		return settings.Setting{}, fmt.Errorf("setting %q: %w", key, shared.ErrNotFound)
	}
	return setting, nil
}

func (s *stubSettings) All(ctx context.Context) ([]settings.Setting, error) {
	var out []settings.Setting
	for _, v := range s.values {
		out = append(out, v)
	}
	return out, nil
}

func (s *stubSettings) UpdateValue(ctx context.Context, key, value string) error {
	setting, ok := s.values[key]
	if !ok {
		return fmt.Errorf("setting %q: %w", key, shared.ErrNotFound)
	}
	setting.Value = value
	s.values[key] = setting
	return nil
}

func (s *stubSettings) UpdateValues(ctx context.Context, values map[string]string) error {
	for k, v := range values {
		if err := s.UpdateValue(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubSettings) ResetValue(ctx context.Context, key string) (settings.Setting, error) {
	setting, ok := s.values[key]
	if !ok {
		return settings.Setting{}, fmt.Errorf("setting %q: %w", key, shared.ErrNotFound)
	}
	setting.Value = setting.Default
	s.values[key] = setting
	return setting, nil
}

type stubPermissions struct {
	grants map[int64]map[string]bool
}

func (s *stubPermissions) RoleHasPermission(ctx context.Context, roleID int64, permission string) (bool, error) {
	return s.grants[roleID][permission], nil
}

func newMenuService(t *testing.T, layout []Item, grants map[int64]map[string]bool) *Service {
	t.Helper()
	raw, err := json.Marshal(layout)
	require.NoError(t, err)
	repo := &stubSettings{values: map[string]settings.Setting{
		LayoutKey: {
			Key:      LayoutKey,
			Value:    string(raw),
			Type:     settings.TypeJSON,
			Category: "navigation",
			Default:  "[]",
		},
	}}
	st := settings.NewService(repo, nil)
	guard := rbac.NewGuard(&stubPermissions{grants: grants})
	return NewService(st, guard, slog.New(slog.DiscardHandler))
}

func roleOf(id int64) rbac.Principal {
	return rbac.Principal{ID: 1, Active: true, RoleID: &id}
}

func TestResolveHidesDeniedItems(t *testing.T) {
	layout := []Item{
		{Label: "A", Route: "/a", Order: 1},
		{Label: "B", Route: "/b", Permission: "reports.view", Order: 2},
		{Label: "C", Route: "/c", Order: 3},
	}
	svc := newMenuService(t, layout, map[int64]map[string]bool{
		10: {"reports.view": true},
		20: {},
	})
	ctx := context.Background()

	items, err := svc.Resolve(ctx, roleOf(20))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, labels(items))

	items, err = svc.Resolve(ctx, roleOf(10))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, labels(items))
}

func TestResolveAdminSeesEverything(t *testing.T) {
	layout := []Item{
		{Label: "Users", Route: "/admin/users", Permission: rbac.PermUsersView, Order: 2},
		{Label: "Home", Route: "/", Order: 1},
	}
	svc := newMenuService(t, layout, nil)

	items, err := svc.Resolve(context.Background(), rbac.Principal{ID: 1, Active: true, IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Home", "Users"}, labels(items))
}

func TestResolveSortsByOrderKeepsStoredTieOrder(t *testing.T) {
	layout := []Item{
		{Label: "Zeta", Route: "/z", Order: 1},
		{Label: "Alpha", Route: "/a", Order: 1},
		{Label: "First", Route: "/f", Order: 0},
	}
	svc := newMenuService(t, layout, nil)

	items, err := svc.Resolve(context.Background(), rbac.Principal{ID: 1, Active: true, IsAdmin: true})
	require.NoError(t, err)

	// Equal Order values keep the admin's stored layout position.
	assert.Equal(t, []string{"First", "Zeta", "Alpha"}, labels(items))
}

func TestResolveUnreadableLayout(t *testing.T) {
	repo := &stubSettings{values: map[string]settings.Setting{
		LayoutKey: {Key: LayoutKey, Value: "not json", Type: settings.TypeJSON, Default: "[]"},
	}}
	st := settings.NewService(repo, nil)
	guard := rbac.NewGuard(&stubPermissions{})
	svc := NewService(st, guard, slog.New(slog.DiscardHandler))

	items, err := svc.Resolve(context.Background(), rbac.Principal{ID: 1, Active: true, IsAdmin: true})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestValidateLayout(t *testing.T) {
	good, err := json.Marshal([]Item{{Label: "A", Route: "/a"}})
	require.NoError(t, err)
	assert.NoError(t, ValidateLayout(good))

	cases := map[string]string{
		"not an array":    `{"label":"A"}`,
		"missing label":   `[{"route":"/a"}]`,
		"relative route":  `[{"label":"A","route":"a"}]`,
		"duplicate route": `[{"label":"A","route":"/a"},{"label":"B","route":"/a"}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateLayout(json.RawMessage(raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func labels(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}
