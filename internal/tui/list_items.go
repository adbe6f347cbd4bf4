package tui

import (
	"fmt"
	"strings"

	"portfolio-cli/internal/view"

	"github.com/charmbracelet/bubbles/list"
)

type projectItem struct {
	row view.Row
}

func (i projectItem) FilterValue() string { return i.row.Project.Name }

// Title mirrors the manage page: "Name (index: i)".
func (i projectItem) Title() string {
	return fmt.Sprintf("%s (index: %d)", i.row.Project.Name, i.row.Index)
}

func (i projectItem) Description() string {
	url := strings.TrimSpace(i.row.Project.URL)
	if url == "" {
		return "-"
	}
	return glyphArrow() + " " + url
}

func projectItems(snap view.Snapshot) []list.Item {
	items := make([]list.Item, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		items = append(items, projectItem{row: r})
	}
	return items
}

func newList(title string, items []list.Item) list.Model {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Foreground(colorAccent).BorderForeground(colorAccent)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.Foreground(colorChromeFg).BorderForeground(colorAccent)

	l := list.New(items, d, 0, 0)
	l.Title = title
	// The app renders its own header, flash line and help.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("project", "projects")
	// ESC is back/cancel here, not quit.
	l.KeyMap.Quit.SetKeys("q")
	l.KeyMap.CursorUp.SetKeys(append(append([]string{}, l.KeyMap.CursorUp.Keys()...), "ctrl+p")...)
	l.KeyMap.CursorDown.SetKeys(append(append([]string{}, l.KeyMap.CursorDown.Keys()...), "ctrl+n")...)
	return l
}

func selectedRow(l list.Model) (view.Row, bool) {
	it, ok := l.SelectedItem().(projectItem)
	if !ok {
		return view.Row{}, false
	}
	return it.row, true
}
