package prefs

import (
	"context"
	"fmt"
	"strings"

	"github.com/dailypixel/storydesk/internal/errors"
)

// ThemeKey holds the selected color theme.
const ThemeKey = "theme"

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Theme stores the light/dark preference.
type Theme struct {
	kv KV
}

// NewTheme returns a theme preference backed by kv.
func NewTheme(kv KV) *Theme {
	return &Theme{kv: kv}
}

// Get returns the stored theme, defaulting to light.
func (t *Theme) Get(ctx context.Context) (string, error) {
	raw, ok, err := t.kv.Get(ctx, ThemeKey)
	if err != nil {
		return "", err
	}
	if ok && raw == ThemeDark {
		return ThemeDark, nil
	}
	return ThemeLight, nil
}

// Set stores theme, which must be "dark" or "light".
func (t *Theme) Set(ctx context.Context, theme string) error {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if theme != ThemeDark && theme != ThemeLight {
		return errors.NewInvalidRequest(fmt.Sprintf("theme must be %q or %q", ThemeDark, ThemeLight))
	}
	return t.kv.Set(ctx, ThemeKey, theme)
}

// Toggle flips the theme and returns the new value.
func (t *Theme) Toggle(ctx context.Context) (string, error) {
	current, err := t.Get(ctx)
	if err != nil {
		return "", err
	}
	next := ThemeDark
	if current == ThemeDark {
		next = ThemeLight
	}
	if err := t.kv.Set(ctx, ThemeKey, next); err != nil {
		return "", err
	}
	return next, nil
}
