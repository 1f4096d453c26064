package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Theme is the persisted colour scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	}
	return "", fmt.Errorf("unknown theme %q (want light or dark)", s)
}

// LoadTheme returns the stored theme, defaulting to light. Both JSON strings
// and bare values are accepted.
func LoadTheme(ctx context.Context, kv KV) Theme {
	raw, ok, err := kv.Get(ctx, KeyTheme)
	if err != nil || !ok {
		return ThemeLight
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		s = string(raw)
	}
	t, err := ParseTheme(s)
	if err != nil {
		return ThemeLight
	}
	return t
}

// SaveTheme persists the theme preference.
func SaveTheme(ctx context.Context, kv KV, t Theme) error {
	return Save(ctx, kv, KeyTheme, t)
}
