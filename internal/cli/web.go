package cli

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"portfolio-cli/internal/mockapi"
	"portfolio-cli/internal/store"
	"portfolio-cli/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newWebCmd(app *App) *cobra.Command {
	var addr string
	var open bool
	var withMock bool

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Run the project manager and showcase in the browser",
		Long: strings.TrimSpace(`
Run the HTML UI from a local HTTP server.

Pages are server-rendered and work without JavaScript (plain form posts).
With JavaScript, datastar patches the list, selectors and messages in place.
`),
		Example: strings.TrimSpace(`
# Serve on the configured address
portfolio web

# Remote mode against a local mock API instead of the hosted fixture
portfolio --mode remote web --with-mock-api
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := app.loadedConfig()
			if err != nil {
				return writeErr(cmd, err)
			}

			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = cfg.Web.Addr
			}
			if listenAddr == "" {
				return writeErr(cmd, errors.New("web: missing --addr"))
			}

			var servers []listener
			serving := false
			defer func() {
				if serving {
					return
				}
				for _, l := range servers {
					_ = l.ln.Close()
				}
			}()
			if withMock {
				mln, err := net.Listen("tcp", cfg.MockAPI.Addr)
				if err != nil {
					return writeErr(cmd, err)
				}
				gin.SetMode(gin.ReleaseMode)
				servers = append(servers, listener{
					name:    "mock-api",
					ln:      mln,
					handler: mockapi.New(store.DefaultProjects(), app.logger()).Handler(),
				})
				// Must happen before storage is opened.
				cfg.Remote.BaseURL = "http://" + mln.Addr().String() + "/projects"
			}

			mgr, err := app.manager(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := mgr.SeedDefaults(ctx); err != nil {
				return writeErr(cmd, err)
			}
			themes, err := app.themes(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := app.storage()
			if err != nil {
				return writeErr(cmd, err)
			}

			srv, err := web.NewServer(web.ServerConfig{
				Manager: mgr,
				Source:  b,
				Themes:  themes,
				Log:     app.logger(),
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			servers = append(servers, listener{name: "web", ln: ln, handler: srv.Handler()})

			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"

			opened := false
			openErr := ""
			if open {
				if err := openPath(url); err != nil {
					openErr = err.Error()
				} else {
					opened = true
				}
			}

			hints := []string{}
			if !opened {
				hints = append(hints, "open "+url)
			}

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"mode":      mgr.Mode(),
					"remote":    cfg.Remote.BaseURL,
					"opened":    opened,
					"openError": openErr,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": hints,
			})

			fmt.Fprintf(cmd.ErrOrStderr(), "Portfolio web running at %s (mode=%s)\n", url, mgr.Mode())
			if openErr != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to open browser: %s\n", openErr)
			}

			serving = true
			return serveAll(ctx, app.logger(), servers...)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (host:port or :port); default web.addr from config")
	cmd.Flags().BoolVar(&open, "open", true, "Open the UI in your default browser")
	cmd.Flags().BoolVar(&withMock, "with-mock-api", false, "Also serve the mock remote API and use it for remote mode")
	return cmd
}

func newMockAPICmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "mock-api",
		Short: "Serve a local stand-in for the remote projects API",
		Long: strings.TrimSpace(`
Serve the sample projects as a JSON API. Writes answer as if they succeeded
but never change the data, like the hosted fixture.

Point remote mode at it with PORTFOLIO_REMOTE_URL=http://<addr>/projects.
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadedConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = cfg.MockAPI.Addr
			}
			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			gin.SetMode(gin.ReleaseMode)
			h := mockapi.New(store.DefaultProjects(), app.logger()).Handler()

			base := "http://" + ln.Addr().String() + "/projects"
			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{"addr": ln.Addr().String(), "url": base},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "Mock API running at %s\n", base)

			return serveAll(cmd.Context(), app.logger(), listener{name: "mock-api", ln: ln, handler: h})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Bind address; default mock_api.addr from config")
	return cmd
}
