package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portfolio-cli/internal/manage"
	"portfolio-cli/internal/model"
	"portfolio-cli/internal/store"
	"portfolio-cli/internal/view"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

type screen int

const (
	screenList screen = iota
	screenForm
	screenConfirm
	screenCards
)

// Messages produced by commands. Every backend call runs inside a tea.Cmd so
// the UI keeps rendering while a remote request is in flight.
type (
	snapshotMsg struct {
		snap view.Snapshot
		err  error
	}
	opDoneMsg struct {
		op  string
		res manage.Result
		err error
	}
	selectMsg struct {
		sel     manage.Selection
		project model.Project
		ok      bool
		err     error
	}
	themeMsg struct {
		theme store.Theme
		err   error
	}
	cardsMsg struct {
		source   store.Mode
		projects []model.Project
		err      error
	}
	flashDoneMsg struct{ seq int }
)

type flash struct {
	msg view.Message
	seq int
}

type appModel struct {
	ctx     context.Context
	mgr     *manage.Manager
	// src lets the cards screen read either store without switching modes.
	src     manage.Source
	themes  *store.ThemeStore
	copy    func(string) error
	timeout time.Duration
	log     *zap.Logger

	width  int
	height int

	screen screen
	busy   bool
	theme  store.Theme

	snap     view.Snapshot
	projects list.Model

	form    projectForm
	confirm struct {
		sel   manage.Selection
		name  string
		focus confirmModalFocus
	}

	cardsSource store.Mode
	cards       []model.Project
	cardsView   viewport.Model

	flash    flash
	flashSeq int
	infoTTL  time.Duration

	keys     keyMap
	help     help.Model
	showHelp bool
}

func newAppModel(ctx context.Context, opts Options) appModel {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = store.DefaultRemoteTimeout
	}
	m := appModel{
		ctx:       ctx,
		mgr:       opts.Manager,
		src:       opts.Source,
		themes:    opts.Themes,
		copy:      copyToClipboard,
		timeout:   opts.Timeout,
		log:       opts.Log,
		theme:     opts.Theme,
		infoTTL:   view.DefaultInfoTTL,
		snap:      opts.Manager.Snapshot(),
		projects:  newList("Projects", nil),
		cardsView: viewport.New(0, 0),
		keys:      defaultKeyMap(),
		help:      help.New(),
		width:     80,
		height:    24,
	}
	if m.theme == "" {
		m.theme = store.ThemeLight
	}
	m.resize()
	return m
}

func (m appModel) Init() tea.Cmd { return m.refreshCmd() }

func (m appModel) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(m.ctx, m.timeout)
}

func (m appModel) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		snap, err := m.mgr.Refresh(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m appModel) opCmd(op string, fn func(ctx context.Context) (manage.Result, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		res, err := fn(ctx)
		return opDoneMsg{op: op, res: res, err: err}
	}
}

func (m appModel) selectCmd(sel manage.Selection) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		p, ok, err := m.mgr.Select(ctx, sel)
		return selectMsg{sel: sel, project: p, ok: ok, err: err}
	}
}

func (m appModel) themeCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		t, err := m.themes.Toggle(ctx, m.theme == store.ThemeDark)
		return themeMsg{theme: t, err: err}
	}
}

func (m appModel) cardsCmd(source store.Mode, src manage.Source) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		var b store.Backend = m.mgr.Backend()
		if src != nil && source != b.Mode() {
			var err error
			if b, err = src.Get(ctx, source); err != nil {
				return cardsMsg{source: source, err: err}
			}
		}
		projects, err := b.List(ctx)
		return cardsMsg{source: source, projects: projects, err: err}
	}
}

func (m *appModel) resize() {
	// header + flash + help
	h := m.height - 6
	if h < 4 {
		h = 4
	}
	w := m.listWidth()
	m.projects.SetSize(w, h)
	m.cardsView.Width = m.width
	m.cardsView.Height = h
	m.help.Width = m.width
}

func (m appModel) listWidth() int {
	if m.width >= 100 {
		return m.width / 2
	}
	return m.width
}

func (m *appModel) setSnapshot(snap view.Snapshot) {
	m.snap = snap
	idx := m.projects.Index()
	m.projects.SetItems(projectItems(snap))
	if n := len(snap.Rows); n > 0 {
		if idx >= n {
			idx = n - 1
		}
		m.projects.Select(idx)
	}
}

// showMessage mirrors the manager's message slot. Info messages clear
// themselves after infoTTL unless a newer message replaced them.
func (m *appModel) showMessage(msg view.Message) tea.Cmd {
	m.flashSeq++
	m.flash = flash{msg: msg, seq: m.flashSeq}
	if msg.Kind != view.KindInfo || m.infoTTL <= 0 {
		return nil
	}
	seq := m.flashSeq
	return tea.Tick(m.infoTTL, func(time.Time) tea.Msg { return flashDoneMsg{seq: seq} })
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		if m.screen == screenCards {
			m.renderCards()
		}
		return m, nil

	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flash = flash{}
		}
		return m, nil

	case snapshotMsg:
		m.busy = false
		m.setSnapshot(msg.snap)
		if msg.err != nil {
			m.log.Error("refresh failed", zap.Error(msg.err))
			return m, m.showMessage(m.mgr.Messages().Current())
		}
		return m, nil

	case opDoneMsg:
		m.busy = false
		m.setSnapshot(msg.res.Snapshot)
		if msg.err != nil {
			m.log.Warn("operation failed", zap.String("op", msg.op), zap.Error(msg.err))
		} else {
			m.log.Debug("operation done", zap.String("op", msg.op), zap.String("project", msg.res.Project.Name))
		}
		// A failed form submit stays open so the input can be fixed.
		if msg.err == nil || m.screen == screenConfirm {
			m.screen = screenList
		}
		return m, m.showMessage(msg.res.Message)

	case selectMsg:
		m.busy = false
		if msg.err != nil || !msg.ok {
			m.setSnapshot(m.mgr.Snapshot())
			return m, m.showMessage(m.mgr.Messages().Current())
		}
		m.form = newProjectForm(msg.sel, msg.project.FormValues())
		m.screen = screenForm
		return m, nil

	case themeMsg:
		m.busy = false
		if msg.err != nil {
			m.log.Error("theme toggle failed", zap.Error(msg.err))
			return m, m.showMessage(view.Message{Kind: view.KindError, Text: "Error while trying to save the theme."})
		}
		m.theme = msg.theme
		applyTheme(m.theme)
		if m.screen == screenCards {
			m.renderCards()
		}
		return m, nil

	case cardsMsg:
		m.busy = false
		if msg.err != nil {
			m.log.Error("cards load failed", zap.String("source", string(msg.source)), zap.Error(msg.err))
			return m, m.showMessage(view.Message{Kind: view.KindError, Text: manage.MsgLoadFailed})
		}
		m.cardsSource = msg.source
		m.cards = msg.projects
		m.renderCards()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case screenForm:
			return m.updateForm(msg)
		case screenConfirm:
			return m.updateConfirm(msg)
		case screenCards:
			return m.updateCards(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m appModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case m.busy:
		// Ignore mutations while a request is in flight.
	case key.Matches(msg, m.keys.New):
		m.form = newProjectForm(manage.NoSelection(), nil)
		m.screen = screenForm
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		row, ok := selectedRow(m.projects)
		if !ok {
			return m, m.showMessage(m.mgr.Messages().Error(manage.MsgSelectUpdate))
		}
		m.busy = true
		return m, m.selectCmd(manage.Selection{Index: row.Index, Revision: m.snap.Revision})
	case key.Matches(msg, m.keys.Delete):
		row, ok := selectedRow(m.projects)
		if !ok {
			return m, m.showMessage(m.mgr.Messages().Error(manage.MsgSelectDelete))
		}
		m.confirm.sel = manage.Selection{Index: row.Index, Revision: m.snap.Revision}
		m.confirm.name = row.Project.Name
		m.confirm.focus = confirmFocusCancel
		m.screen = screenConfirm
		return m, nil
	case key.Matches(msg, m.keys.Mode):
		next := store.ModeRemote
		if m.mgr.Mode() == store.ModeRemote {
			next = store.ModeLocal
		}
		m.busy = true
		return m, m.opCmd("mode", func(ctx context.Context) (manage.Result, error) {
			return m.mgr.SwitchMode(ctx, next)
		})
	case key.Matches(msg, m.keys.Theme):
		if m.themes == nil {
			return m, nil
		}
		m.busy = true
		return m, m.themeCmd()
	case key.Matches(msg, m.keys.Cards):
		m.screen = screenCards
		m.busy = true
		return m, m.cardsCmd(m.mgr.Mode(), nil)
	case key.Matches(msg, m.keys.CopyURL):
		row, ok := selectedRow(m.projects)
		if !ok {
			return m, nil
		}
		if err := m.copy(row.Project.URL); err != nil {
			m.log.Warn("clipboard copy failed", zap.Error(err))
			return m, m.showMessage(view.Message{Kind: view.KindError, Text: "Could not copy to the clipboard."})
		}
		return m, m.showMessage(view.Message{Kind: view.KindInfo, Text: "Copied " + row.Project.URL})
	case key.Matches(msg, m.keys.Reload):
		m.busy = true
		return m, m.refreshCmd()
	}

	var cmd tea.Cmd
	m.projects, cmd = m.projects.Update(msg)
	return m, cmd
}

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.screen = screenList
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		if m.busy {
			return m, nil
		}
		m.busy = true
		f := m.form
		if f.editing() {
			return m, m.opCmd("update", func(ctx context.Context) (manage.Result, error) {
				return m.mgr.Update(ctx, f.sel, f.values())
			})
		}
		return m, m.opCmd("create", func(ctx context.Context) (manage.Result, error) {
			return m.mgr.Create(ctx, f.values())
		})
	case key.Matches(msg, m.keys.Next):
		m.form.move(1)
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.form.move(-1)
		return m, nil
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), msg.String() == "n":
		m.screen = screenList
		return m, nil
	case key.Matches(msg, m.keys.Next, m.keys.Prev), msg.String() == "left", msg.String() == "right":
		m.confirm.focus = m.confirm.focus.next()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.confirm.focus = confirmFocusConfirm
	case msg.String() == "enter":
	default:
		return m, nil
	}
	if m.confirm.focus != confirmFocusConfirm {
		m.screen = screenList
		return m, nil
	}
	if m.busy {
		return m, nil
	}
	m.busy = true
	sel := m.confirm.sel
	return m, m.opCmd("delete", func(ctx context.Context) (manage.Result, error) {
		return m.mgr.Delete(ctx, sel)
	})
}

func (m appModel) updateCards(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), msg.String() == "q":
		m.screen = screenList
		return m, nil
	case key.Matches(msg, m.keys.Local):
		m.busy = true
		return m, m.cardsCmd(store.ModeLocal, m.src)
	case key.Matches(msg, m.keys.Remote):
		m.busy = true
		return m, m.cardsCmd(store.ModeRemote, m.src)
	case key.Matches(msg, m.keys.Theme) && m.themes != nil:
		m.busy = true
		return m, m.themeCmd()
	}
	var cmd tea.Cmd
	m.cardsView, cmd = m.cardsView.Update(msg)
	return m, cmd
}

func (m *appModel) renderCards() {
	w := m.width - 2
	if w < 20 {
		w = 20
	}
	m.cardsView.SetContent(view.RenderCards(m.cards, glamourStyle(m.theme), w))
	m.cardsView.GotoTop()
}

func (m appModel) View() string {
	header := m.viewHeader()

	var body string
	switch m.screen {
	case screenForm:
		body = lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, m.form.view(m.width))
	case screenConfirm:
		q := fmt.Sprintf("Delete %q?", m.confirm.name)
		modal := renderConfirmModal(m.width, "Delete project", q, "Delete", "Cancel", m.confirm.focus)
		body = lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, modal)
	case screenCards:
		body = m.cardsView.View()
	default:
		body = m.viewList()
	}

	return strings.Join([]string{header, body, m.viewFlash(), m.viewHelp()}, "\n")
}

func (m appModel) bodyHeight() int {
	h := m.height - 6
	if h < 4 {
		h = 4
	}
	return h
}

func (m appModel) viewHeader() string {
	mode := string(m.mgr.Mode())
	if !m.snap.Persistent && m.snap.Mode != "" {
		mode += " (not persisted)"
	}
	title := "Projects"
	if m.screen == screenCards {
		title = "Cards"
		if m.cardsSource != "" {
			mode = string(m.cardsSource)
		}
	}
	sep := " " + glyphSeparator() + " "
	parts := styleHeader().Render(title) + styleChrome().Render(sep+mode+sep+string(m.theme))
	if m.busy {
		parts += styleMuted().Render(sep + "loading" + glyphBullet())
	}
	rule := styleMuted().Render(strings.Repeat(glyphHRule(), max(m.width, 1)))
	return parts + "\n" + rule
}

func (m appModel) viewList() string {
	h := m.bodyHeight()
	if m.snap.Empty() {
		return normalizePane(styleMuted().Render(view.EmptyPlaceholder), m.width, h)
	}
	left := m.projects.View()
	if m.listWidth() == m.width {
		return left
	}
	rw := m.width - m.listWidth() - 1
	var right string
	if row, ok := selectedRow(m.projects); ok {
		right = view.RenderCards([]model.Project{row.Project}, glamourStyle(m.theme), rw)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		normalizePane(left, m.listWidth(), h),
		" ",
		normalizePane(right, rw, h),
	)
}

func (m appModel) viewFlash() string {
	return view.RenderMessage(m.flash.msg)
}

func (m appModel) viewHelp() string {
	var km help.KeyMap = listHelp{m.keys}
	switch m.screen {
	case screenForm:
		km = formHelp{m.keys}
	case screenConfirm:
		return ""
	case screenCards:
		km = cardsHelp{m.keys}
	}
	if m.showHelp {
		return m.help.FullHelpView(km.FullHelp())
	}
	return m.help.ShortHelpView(km.ShortHelp())
}
