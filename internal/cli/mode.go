package cli

import (
	"strings"

	"portfolio-cli/internal/config"
	"portfolio-cli/internal/store"

	"github.com/spf13/cobra"
)

func newModeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Show the storage mode in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadedConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			mode := cfg.StorageMode()
			data := map[string]any{
				"mode":      mode,
				"persisted": mode == store.ModeLocal,
			}
			switch mode {
			case store.ModeLocal:
				data["driver"] = cfg.Local.Driver
				if cfg.Local.Driver == store.DriverSQLite {
					data["path"] = cfg.Local.Path
				}
			case store.ModeRemote:
				data["url"] = cfg.Remote.BaseURL
			}
			return writeOut(cmd, app, map[string]any{"data": data})
		},
	}
	cmd.AddCommand(newModeSetCmd(app))
	return cmd
}

func newModeSetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <local|remote>",
		Short: "Save the default storage mode to the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := store.ParseMode(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			path := strings.TrimSpace(app.ConfigPath)
			if path == "" {
				if path, err = config.Path(); err != nil {
					return writeErr(cmd, err)
				}
			}
			cfg, err := config.LoadFile(path)
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg.Mode = string(mode)
			if err := cfg.Save(path); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"mode": mode, "config": path},
			})
		},
	}
	return cmd
}
