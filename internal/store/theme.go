package store

import (
	"context"
	"fmt"
	"strings"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"

	ThemeKey = "theme"
)

func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	default:
		return "", fmt.Errorf("invalid theme %q (expected light|dark)", s)
	}
}

func (t Theme) Toggled() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// SystemTheme maps a "prefers dark" signal to a theme.
func SystemTheme(prefersDark bool) Theme {
	if prefersDark {
		return ThemeDark
	}
	return ThemeLight
}

// ThemeStore persists an explicit light/dark choice. Without one, callers
// follow the system preference.
type ThemeStore struct {
	kv KV
}

func NewThemeStore(kv KV) *ThemeStore {
	return &ThemeStore{kv: kv}
}

// Stored returns the explicit choice, if any. Unrecognized values are ignored.
func (s *ThemeStore) Stored(ctx context.Context) (Theme, bool, error) {
	raw, ok, err := s.kv.Get(ctx, ThemeKey)
	if err != nil || !ok {
		return "", false, err
	}
	t, err := ParseTheme(string(raw))
	if err != nil {
		return "", false, nil
	}
	return t, true, nil
}

func (s *ThemeStore) Resolve(ctx context.Context, prefersDark bool) (Theme, error) {
	t, ok, err := s.Stored(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return SystemTheme(prefersDark), nil
	}
	return t, nil
}

func (s *ThemeStore) Set(ctx context.Context, t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	return s.kv.Set(ctx, ThemeKey, []byte(t))
}

// Toggle flips the effective theme and persists the result.
func (s *ThemeStore) Toggle(ctx context.Context, prefersDark bool) (Theme, error) {
	cur, err := s.Resolve(ctx, prefersDark)
	if err != nil {
		return "", err
	}
	next := cur.Toggled()
	if err := s.Set(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}

func (s *ThemeStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, ThemeKey)
}
