package cli

import (
	"errors"

	"portfolio-cli/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newThemeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Light/dark theme preference (shared by the TUI and web UI)",
	}
	cmd.AddCommand(newThemeShowCmd(app))
	cmd.AddCommand(newThemeToggleCmd(app))
	cmd.AddCommand(newThemeSetCmd(app))
	return cmd
}

func newThemeShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			themes, err := app.themes(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			stored, explicit, err := themes.Stored(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			theme := stored
			if !explicit {
				theme = store.SystemTheme(lipgloss.HasDarkBackground())
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"theme": theme, "explicit": explicit},
			})
		},
	}
	return cmd
}

func newThemeToggleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Flip between light and dark and remember the choice",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			themes, err := app.themes(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			next, err := themes.Toggle(ctx, lipgloss.HasDarkBackground())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"theme": next}})
		},
	}
	return cmd
}

func newThemeSetCmd(app *App) *cobra.Command {
	var system bool

	cmd := &cobra.Command{
		Use:   "set <light|dark>",
		Short: "Set the theme explicitly (--system to follow the terminal/browser again)",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			themes, err := app.themes(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			if system {
				if err := themes.Clear(ctx); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"theme": nil}})
			}
			if len(args) != 1 {
				return writeErr(cmd, errors.New("theme: expected light|dark or --system"))
			}
			t, err := store.ParseTheme(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := themes.Set(ctx, t); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"theme": t}})
		},
	}
	cmd.Flags().BoolVar(&system, "system", false, "Forget the explicit choice")
	return cmd
}
