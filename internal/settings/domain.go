package settings

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/lanhub-app/lanhub/internal/shared"
)

// Type enumerates the value types a setting may declare.
type Type string

const (
	TypeString Type = "string"
	TypeInt    Type = "int"
	TypeBool   Type = "bool"
	TypeJSON   Type = "json"
	TypeColor  Type = "color"
	TypeSelect Type = "select"
)

// Valid reports whether t is a known setting type.
func (t Type) Valid() bool {
	switch t {
	case TypeString, TypeInt, TypeBool, TypeJSON, TypeColor, TypeSelect:
		return true
	}
	return false
}

// Setting is a typed key-value pair driving runtime configuration. Values
// are persisted in raw string form and parsed on read according to Type.
// Settings are seeded once and never hard-deleted; Default holds the seeded
// value so admins can reset without removing the key.
type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Type        Type      `json:"type"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Options     []string  `json:"options,omitempty"`
	Default     string    `json:"default"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Normalize validates raw against the declared type and returns the
// canonical stored form. A mismatch yields shared.ErrValidation naming the
// expected type so the admin form can surface it inline.
func (s Setting) Normalize(raw string) (string, error) {
	switch s.Type {
	case TypeString:
		return raw, nil
	case TypeInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: setting %q expects an int value", shared.ErrValidation, s.Key)
		}
		return strconv.FormatInt(n, 10), nil
	case TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return "", fmt.Errorf("%w: setting %q expects a bool value", shared.ErrValidation, s.Key)
		}
		return strconv.FormatBool(b), nil
	case TypeJSON:
		if !json.Valid([]byte(raw)) {
			return "", fmt.Errorf("%w: setting %q expects a json value", shared.ErrValidation, s.Key)
		}
		return raw, nil
	case TypeColor:
		if !colorPattern.MatchString(raw) {
			return "", fmt.Errorf("%w: setting %q expects a color value like #2563eb", shared.ErrValidation, s.Key)
		}
		return raw, nil
	case TypeSelect:
		for _, opt := range s.Options {
			if raw == opt {
				return raw, nil
			}
		}
		return "", fmt.Errorf("%w: setting %q expects a select value from %v", shared.ErrValidation, s.Key, s.Options)
	}
	return "", fmt.Errorf("%w: setting %q has unknown type %q", shared.ErrValidation, s.Key, s.Type)
}

// TypedValue parses the stored raw value according to the declared type.
func (s Setting) TypedValue() (any, error) {
	switch s.Type {
	case TypeString, TypeColor, TypeSelect:
		return s.Value, nil
	case TypeInt:
		return strconv.ParseInt(s.Value, 10, 64)
	case TypeBool:
		return strconv.ParseBool(s.Value)
	case TypeJSON:
		var v any
		if err := json.Unmarshal([]byte(s.Value), &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, fmt.Errorf("settings: unknown type %q for key %q", s.Type, s.Key)
}
