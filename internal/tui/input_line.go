package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// renderField renders a form label above a one-line input filled to bodyW.
func renderField(bodyW int, label string, required, focused bool, inputView string) string {
	if bodyW < 10 {
		bodyW = 10
	}
	if required {
		label += " *"
	}
	labelStyle := lipgloss.NewStyle().Foreground(colorChromeFg)
	if focused {
		labelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	}

	// A wrapped input looks like inserted newlines while typing.
	inputView = strings.NewReplacer("\r", " ", "\n", " ").Replace(inputView)
	line := lipgloss.PlaceHorizontal(bodyW, lipgloss.Left, " "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > bodyW {
		line = xansi.Truncate(line, bodyW, "")
	}
	return labelStyle.Render(label) + "\n" + line
}
