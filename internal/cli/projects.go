package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"portfolio-cli/internal/format"
	"portfolio-cli/internal/manage"
	"portfolio-cli/internal/model"
	"portfolio-cli/internal/store"
	"portfolio-cli/internal/view"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

type projectRow struct {
	Index int `json:"index"`
	model.Project
}

type projectRows []projectRow

func (r projectRows) TableHeaders() []string {
	return []string{"index", "id", "name", "url"}
}

func (r projectRows) TableRows() [][]string {
	out := make([][]string, 0, len(r))
	for _, p := range r {
		out = append(out, []string{strconv.Itoa(p.Index), p.ID, p.Name, p.URL})
	}
	return out
}

func rowsOf(snap view.Snapshot) projectRows {
	out := make(projectRows, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		out = append(out, projectRow{Index: r.Index, Project: r.Project})
	}
	return out
}

// writeData wraps v in the usual {"data": ...} envelope, or prints tab for
// --format table.
func writeData(cmd *cobra.Command, app *App, v any, tab format.Tabular, extra map[string]any) error {
	if app.Format == format.Table && tab != nil {
		return format.WriteTable(cmd.OutOrStdout(), tab)
	}
	out := map[string]any{"data": v}
	for k, x := range extra {
		out[k] = x
	}
	return writeOut(cmd, app, out)
}

// managerErr pairs the user-facing slot message with the underlying error.
func managerErr(mgr *manage.Manager, err error) error {
	msg := mgr.Messages().Current().ErrorText()
	if msg == "" || msg == err.Error() {
		return err
	}
	return fmt.Errorf("%s (%w)", msg, err)
}

func resolveErr(ref string, err error) error {
	if errors.Is(err, manage.ErrNotFound) || errors.Is(err, store.ErrIndexOutOfRange) {
		return errNotFound("project", ref)
	}
	return err
}

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "Project commands",
	}
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsShowCmd(app))
	cmd.AddCommand(newProjectsCreateCmd(app))
	cmd.AddCommand(newProjectsUpdateCmd(app))
	cmd.AddCommand(newProjectsDeleteCmd(app))
	cmd.AddCommand(newProjectsCardsCmd(app))
	cmd.AddCommand(newProjectsSeedCmd(app))
	cmd.AddCommand(newProjectsResetCmd(app))
	return cmd
}

func newProjectsListCmd(app *App) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects in storage order",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := app.manager(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			snap, err := mgr.Refresh(cmd.Context())
			if err != nil {
				return writeErr(cmd, managerErr(mgr, err))
			}
			if app.Format == format.Text {
				return writeText(cmd, snap, view.Message{}, width)
			}
			rows := rowsOf(snap)
			return writeData(cmd, app, rows, rows, map[string]any{
				"mode":      snap.Mode,
				"persisted": snap.Persistent,
			})
		},
	}
	cmd.Flags().IntVar(&width, "width", 80, "Truncate lines for --format text (0 disables)")
	return cmd
}

func newProjectsShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <index|project-id>",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, err := app.manager(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			sel, err := mgr.Resolve(ctx, args[0])
			if err != nil {
				return writeErr(cmd, resolveErr(args[0], err))
			}
			p, _, err := mgr.Select(ctx, sel)
			if err != nil {
				return writeErr(cmd, managerErr(mgr, err))
			}
			row := projectRow{Index: sel.Index, Project: p}
			return writeData(cmd, app, row, projectRows{row}, nil)
		},
	}
	return cmd
}

type projectFlags struct {
	name, description, url, coverBase, coverLG string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, model.FieldName, "", "Project name")
	cmd.Flags().StringVar(&f.description, model.FieldDescription, "", "Short description (markdown)")
	cmd.Flags().StringVar(&f.url, model.FieldURL, "", "Project URL")
	cmd.Flags().StringVar(&f.coverBase, model.FieldCoverBase, "", "Cover image URL")
	cmd.Flags().StringVar(&f.coverLG, model.FieldCoverLG, "", "Large cover image URL (min-width 768px)")
}

// form builds the submitted values. Flags that were not given keep base.
func (f *projectFlags) form(cmd *cobra.Command, base map[string]string) url.Values {
	vals := url.Values{}
	for k, v := range base {
		vals.Set(k, v)
	}
	set := func(field, v string) {
		if base == nil || cmd.Flags().Changed(field) {
			vals.Set(field, v)
		}
	}
	set(model.FieldName, f.name)
	set(model.FieldDescription, f.description)
	set(model.FieldURL, f.url)
	set(model.FieldCoverBase, f.coverBase)
	set(model.FieldCoverLG, f.coverLG)
	return vals
}

func newProjectsCreateCmd(app *App) *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Append a project",
		Example: strings.TrimSpace(`
portfolio projects create --name Gadget --url https://gadget.dev \
  --description "A *tiny* tool" --cover-base https://gadget.dev/c.jpg
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := app.manager(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mgr.Create(cmd.Context(), flags.form(cmd, nil))
			if err != nil {
				return writeErr(cmd, managerErr(mgr, err))
			}
			return writeResult(cmd, app, res)
		},
	}
	flags.register(cmd)
	return cmd
}

func newProjectsUpdateCmd(app *App) *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "update <index|project-id>",
		Short: "Replace a project; fields not given keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, err := app.manager(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			sel, err := mgr.Resolve(ctx, args[0])
			if err != nil {
				return writeErr(cmd, resolveErr(args[0], err))
			}
			cur, _, err := mgr.Select(ctx, sel)
			if err != nil {
				return writeErr(cmd, managerErr(mgr, err))
			}
			res, err := mgr.Update(ctx, sel, flags.form(cmd, cur.FormValues()))
			if err != nil {
				return writeErr(cmd, managerErr(mgr, err))
			}
			return writeResult(cmd, app, res)
		},
	}
	flags.register(cmd)
	return cmd
}

func newProjectsDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <index|project-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, err := app.manager(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			sel, err := mgr.Resolve(ctx, args[0])
			if err != nil {
				return writeErr(cmd, resolveErr(args[0], err))
			}
			res, err := mgr.Delete(ctx, sel)
			if err != nil {
				return writeErr(cmd, managerErr(mgr, err))
			}
			return writeResult(cmd, app, res)
		},
	}
	return cmd
}

func writeText(cmd *cobra.Command, snap view.Snapshot, msg view.Message, width int) error {
	_, err := fmt.Fprint(cmd.OutOrStdout(), view.RenderText(snap, msg, width))
	return err
}

func writeResult(cmd *cobra.Command, app *App, res manage.Result) error {
	rows := rowsOf(res.Snapshot)
	switch app.Format {
	case format.Text:
		return writeText(cmd, res.Snapshot, res.Message, 80)
	case format.Table:
		fmt.Fprintln(cmd.ErrOrStderr(), res.Message.InfoText())
		return format.WriteTable(cmd.OutOrStdout(), rows)
	}
	return writeOut(cmd, app, map[string]any{
		"data":     res.Project,
		"message":  res.Message.InfoText(),
		"projects": rows,
	})
}

func newProjectsCardsCmd(app *App) *cobra.Command {
	var source string
	var width int

	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Render project cards (markdown) for the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := app.storage()
			if err != nil {
				return writeErr(cmd, err)
			}
			mode := app.cfg.StorageMode()
			if strings.TrimSpace(source) != "" {
				if mode, err = store.ParseMode(source); err != nil {
					return writeErr(cmd, err)
				}
			}
			backend, err := b.Get(ctx, mode)
			if err != nil {
				return writeErr(cmd, err)
			}
			projects, err := backend.List(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}

			themes, err := app.themes(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			theme, err := themes.Resolve(ctx, lipgloss.HasDarkBackground())
			if err != nil {
				return writeErr(cmd, err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), view.RenderCards(projects, string(theme), width))
			return err
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Load from local|remote (default: active mode)")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width")
	return cmd
}

func newProjectsSeedCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the sample projects if local storage has never been written",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := app.manager(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			seeded, err := mgr.SeedDefaults(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"seeded": seeded, "mode": mgr.Mode()},
			})
		},
	}
	return cmd
}

func newProjectsResetCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop local storage so the next seed writes the sample projects again",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return writeErr(cmd, errors.New("reset deletes every local project; pass --yes to confirm"))
			}
			ctx := cmd.Context()
			b, err := app.storage()
			if err != nil {
				return writeErr(cmd, err)
			}
			local, err := b.Local(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := local.Reset(ctx); err != nil {
				return writeErr(cmd, err)
			}
			app.logger().Info("local projects reset")
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"reset": true}})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm")
	return cmd
}
