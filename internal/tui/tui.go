package tui

import (
	"context"
	"time"

	"portfolio-cli/internal/manage"
	"portfolio-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type Options struct {
	Manager *manage.Manager
	// Source backs the cards screen; nil limits it to the active mode.
	Source manage.Source
	Themes *store.ThemeStore
	// Theme overrides the stored/system theme when set.
	Theme   store.Theme
	Timeout time.Duration
	Log     *zap.Logger
}

func Run(ctx context.Context, opts Options) error {
	applyColorProfilePreference()
	applyGlyphPreference()

	if opts.Theme == "" {
		dark := systemPrefersDark()
		opts.Theme = store.SystemTheme(dark)
		if opts.Themes != nil {
			t, err := opts.Themes.Resolve(ctx, dark)
			if err != nil {
				return err
			}
			opts.Theme = t
		}
	}
	applyTheme(opts.Theme)

	m := newAppModel(ctx, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
