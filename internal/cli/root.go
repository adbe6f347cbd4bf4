package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"portfolio-cli/internal/config"
	"portfolio-cli/internal/format"
	"portfolio-cli/internal/logging"
	"portfolio-cli/internal/manage"
	"portfolio-cli/internal/store"
	"portfolio-cli/internal/tui"
	"portfolio-cli/internal/view"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	Mode       string
	ConfigPath string
	Format     string
	PrettyJSON bool
	Verbose    bool
	Ephemeral  bool

	cfg      *config.Config
	log      *zap.Logger
	backends *store.Backends
	mgr      *manage.Manager
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "portfolio",
		Short:        "Portfolio projects manager (CLI + TUI + web)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  portfolio

  # Scriptable commands
  portfolio projects list --format table

  # Work against the remote fixture (changes are not persisted)
  portfolio --mode remote projects list

  # Direct lookup (shortcut for: portfolio projects show <id>)
  portfolio proj-2f6c1d0e
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd)
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.Close()
	}

	cmd.PersistentFlags().StringVar(&app.Mode, "mode", envOr("PORTFOLIO_MODE", ""), "Storage mode (local|remote); defaults to the configured mode")
	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("PORTFOLIO_CONFIG", ""), "Path to config.yaml (default: ~/.portfolio/config.yaml)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("PORTFOLIO_FORMAT", "json"), "Output format (json|edn|table|text)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Debug logging in console format")
	cmd.PersistentFlags().BoolVar(&app.Ephemeral, "ephemeral", false, "Keep local data in memory for this run only")

	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newModeCmd(app))
	cmd.AddCommand(newThemeCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newMockAPICmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// setup loads .env and config, then builds the logger. Storage is opened
// lazily by the commands that need it.
func (app *App) setup(cmd *cobra.Command) error {
	dir, err := config.Dir()
	if err != nil {
		return writeErr(cmd, err)
	}
	if err := config.LoadEnvFiles(".env", filepath.Join(dir, ".env")); err != nil {
		return writeErr(cmd, err)
	}
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return writeErr(cmd, err)
	}
	if m := strings.TrimSpace(app.Mode); m != "" {
		mode, err := store.ParseMode(m)
		if err != nil {
			return writeErr(cmd, err)
		}
		cfg.Mode = string(mode)
	}
	if app.Ephemeral {
		cfg.Local.Driver = store.DriverMemory
	}
	app.cfg = cfg

	opts := logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Verbose: app.Verbose}
	if cmd == cmd.Root() {
		// The TUI owns the terminal.
		opts.File = filepath.Join(dir, "portfolio.log")
	}
	log, err := logging.New(opts)
	if err != nil {
		return writeErr(cmd, err)
	}
	app.log = log
	return nil
}

func (app *App) Close() error {
	var errs []error
	if app.mgr != nil {
		app.mgr.Messages().Close()
	}
	if app.backends != nil {
		errs = append(errs, app.backends.Close())
		app.backends = nil
	}
	app.mgr = nil
	if app.log != nil {
		// Sync on stderr fails on some terminals; not worth reporting.
		_ = app.log.Sync()
	}
	return errors.Join(errs...)
}

func (app *App) logger() *zap.Logger {
	if app.log == nil {
		return zap.NewNop()
	}
	return app.log
}

func (app *App) loadedConfig() (*config.Config, error) {
	if app.cfg == nil {
		return nil, errors.New("config not loaded")
	}
	return app.cfg, nil
}

func (app *App) storage() (*store.Backends, error) {
	if app.backends != nil {
		return app.backends, nil
	}
	cfg, err := app.loadedConfig()
	if err != nil {
		return nil, err
	}
	app.backends = store.NewBackends(cfg.StoreOptions(app.logger()))
	return app.backends, nil
}

func (app *App) manager(ctx context.Context) (*manage.Manager, error) {
	if app.mgr != nil {
		return app.mgr, nil
	}
	b, err := app.storage()
	if err != nil {
		return nil, err
	}
	mgr, err := manage.New(ctx, b, app.cfg.StorageMode(), view.NewMessageSlot(view.DefaultInfoTTL), app.logger())
	if err != nil {
		return nil, err
	}
	app.mgr = mgr
	return mgr, nil
}

func (app *App) themes(ctx context.Context) (*store.ThemeStore, error) {
	b, err := app.storage()
	if err != nil {
		return nil, err
	}
	kv, err := b.KV(ctx)
	if err != nil {
		return nil, err
	}
	return store.NewThemeStore(kv), nil
}

func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	mgr, err := app.manager(ctx)
	if err != nil {
		return writeErr(cmd, err)
	}
	// The cards view expects the sample projects on a fresh install.
	if _, err := mgr.SeedDefaults(ctx); err != nil {
		return writeErr(cmd, err)
	}
	themes, err := app.themes(ctx)
	if err != nil {
		return writeErr(cmd, err)
	}
	return tui.Run(ctx, tui.Options{
		Manager: mgr,
		Source:  app.backends,
		Themes:  themes,
		Timeout: app.cfg.RemoteTimeout(),
		Log:     app.logger(),
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
