package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	New       key.Binding
	Edit      key.Binding
	Delete    key.Binding
	Mode      key.Binding
	Theme     key.Binding
	Cards     key.Binding
	Reload    key.Binding
	CopyURL   key.Binding
	Help      key.Binding
	Quit      key.Binding
	Back      key.Binding
	Next      key.Binding
	Prev      key.Binding
	Submit    key.Binding
	Confirm   key.Binding
	Local     key.Binding
	Remote    key.Binding
	CardsUp   key.Binding
	CardsDown key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		New:       key.NewBinding(key.WithKeys("n", "a"), key.WithHelp("n", "new")),
		Edit:      key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e/enter", "edit")),
		Delete:    key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
		Mode:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "local/remote")),
		Theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Cards:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cards")),
		Reload:    key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "reload")),
		CopyURL:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "copy url")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Back:      key.NewBinding(key.WithKeys("esc", "ctrl+g"), key.WithHelp("esc", "back")),
		Next:      key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:      key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Submit:    key.NewBinding(key.WithKeys("ctrl+s", "enter"), key.WithHelp("enter/ctrl+s", "save")),
		Confirm:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		Local:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "load local")),
		Remote:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "load remote")),
		CardsUp:   key.NewBinding(key.WithKeys("up", "k", "pgup"), key.WithHelp("↑/k", "scroll")),
		CardsDown: key.NewBinding(key.WithKeys("down", "j", "pgdown"), key.WithHelp("↓/j", "scroll")),
	}
}

type listHelp struct{ k keyMap }

func (h listHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.New, h.k.Edit, h.k.Delete, h.k.Mode, h.k.Cards, h.k.Help, h.k.Quit}
}

func (h listHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{h.k.Up, h.k.Down},
		{h.k.New, h.k.Edit, h.k.Delete},
		{h.k.Mode, h.k.Theme, h.k.Cards, h.k.Reload, h.k.CopyURL},
		{h.k.Help, h.k.Quit},
	}
}

type formHelp struct{ k keyMap }

func (h formHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Next, h.k.Prev, h.k.Submit, h.k.Back}
}

func (h formHelp) FullHelp() [][]key.Binding { return [][]key.Binding{h.ShortHelp()} }

type cardsHelp struct{ k keyMap }

func (h cardsHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Local, h.k.Remote, h.k.CardsDown, h.k.Back}
}

func (h cardsHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{h.k.Local, h.k.Remote},
		{h.k.CardsUp, h.k.CardsDown},
		{h.k.Theme, h.k.Back},
	}
}
