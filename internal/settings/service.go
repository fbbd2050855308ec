package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// SchemaValidator checks the decoded payload of a JSON-typed setting.
type SchemaValidator func(raw json.RawMessage) error

// Service is the typed settings store handed to every component that needs
// configuration. One instance is built at startup; there is no package-level
// state.
type Service struct {
	repo    Repository
	cache   *Cache
	schemas map[string]SchemaValidator
}

// NewService builds a Service instance. cache may be nil.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, schemas: make(map[string]SchemaValidator)}
}

// RegisterSchema attaches a schema validator to a JSON-typed key. Every Set
// of that key must pass the validator before it persists. Called during
// startup wiring only.
func (s *Service) RegisterSchema(key string, validate SchemaValidator) {
	s.schemas[key] = validate
}

// Get returns the full setting record, reading through the cache.
func (s *Service) Get(ctx context.Context, key string) (Setting, error) {
	return s.cache.Fetch(ctx, key, func(ctx context.Context) (Setting, error) {
		return s.repo.Get(ctx, key)
	})
}

// Value returns the typed value for key, or shared.ErrNotFound when the key
// is unknown. The store invents no defaults; callers without a fallback must
// handle the error.
func (s *Service) Value(ctx context.Context, key string) (any, error) {
	setting, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return setting.TypedValue()
}

// String returns a string-typed setting, or fallback when the key is
// unknown or unreadable.
func (s *Service) String(ctx context.Context, key, fallback string) string {
	setting, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	switch setting.Type {
	case TypeString, TypeColor, TypeSelect:
		return setting.Value
	}
	return fallback
}

// Int returns an int-typed setting, or fallback.
func (s *Service) Int(ctx context.Context, key string, fallback int64) int64 {
	setting, err := s.Get(ctx, key)
	if err != nil || setting.Type != TypeInt {
		return fallback
	}
	v, err := setting.TypedValue()
	if err != nil {
		return fallback
	}
	return v.(int64)
}

// Bool returns a bool-typed setting, or fallback.
func (s *Service) Bool(ctx context.Context, key string, fallback bool) bool {
	setting, err := s.Get(ctx, key)
	if err != nil || setting.Type != TypeBool {
		return fallback
	}
	v, err := setting.TypedValue()
	if err != nil {
		return fallback
	}
	return v.(bool)
}

// JSON decodes a json-typed setting into dest.
func (s *Service) JSON(ctx context.Context, key string, dest any) error {
	setting, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if setting.Type != TypeJSON {
		return fmt.Errorf("settings: key %q is %s, not json", key, setting.Type)
	}
	return json.Unmarshal([]byte(setting.Value), dest)
}

// Set validates raw against the setting's declared type and persists it.
// The cache entry is dropped before returning, so subsequent reads observe
// the new value immediately. On validation failure nothing is written.
func (s *Service) Set(ctx context.Context, key, raw string) error {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return err
	}
	normalized, err := s.normalize(setting, raw)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateValue(ctx, key, normalized); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, key)
}

// SetMany applies a bulk admin save. Every value is validated up front;
// any failure aborts before the transaction starts, and the transaction
// itself is all-or-nothing. Returns per-key validation errors.
func (s *Service) SetMany(ctx context.Context, values map[string]string) (map[string]error, error) {
	normalized := make(map[string]string, len(values))
	invalid := make(map[string]error)
	for key, raw := range values {
		setting, err := s.repo.Get(ctx, key)
		if err != nil {
			invalid[key] = err
			continue
		}
		n, err := s.normalize(setting, raw)
		if err != nil {
			invalid[key] = err
			continue
		}
		normalized[key] = n
	}
	if len(invalid) > 0 {
		return invalid, nil
	}
	if err := s.repo.UpdateValues(ctx, normalized); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(normalized))
	for key := range normalized {
		keys = append(keys, key)
	}
	return nil, s.cache.Invalidate(ctx, keys...)
}

// Reset restores the seeded default for key. Settings are never deleted, so
// dependent code can always read them.
func (s *Service) Reset(ctx context.Context, key string) (Setting, error) {
	setting, err := s.repo.ResetValue(ctx, key)
	if err != nil {
		return Setting{}, err
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		return Setting{}, err
	}
	return setting, nil
}

// All returns every setting in stable (category, key) order.
func (s *Service) All(ctx context.Context) ([]Setting, error) {
	return s.repo.All(ctx)
}

// WarmCache loads every setting into the cache and reports how many
// keys were primed.
func (s *Service) WarmCache(ctx context.Context) (int, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Warm(ctx, all); err != nil {
		return 0, err
	}
	return len(all), nil
}

// Category groups settings for the admin form.
type Category struct {
	Name     string    `json:"name"`
	Settings []Setting `json:"settings"`
}

// ByCategory returns settings grouped by category, categories sorted by
// name and settings sorted by key within each.
func (s *Service) ByCategory(ctx context.Context) ([]Category, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]Setting)
	for _, setting := range all {
		cat := setting.Category
		if cat == "" {
			cat = "general"
		}
		grouped[cat] = append(grouped[cat], setting)
	}
	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Category, 0, len(names))
	for _, name := range names {
		out = append(out, Category{Name: name, Settings: grouped[name]})
	}
	return out, nil
}

func (s *Service) normalize(setting Setting, raw string) (string, error) {
	normalized, err := setting.Normalize(raw)
	if err != nil {
		return "", err
	}
	if setting.Type == TypeJSON {
		if validate, ok := s.schemas[setting.Key]; ok {
			if err := validate(json.RawMessage(normalized)); err != nil {
				return "", err
			}
		}
	}
	return normalized, nil
}
