package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var (
	textTitle   = lipgloss.NewStyle().Bold(true)
	textMuted   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
	textLink    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "27", Dark: "75"}).Underline(true)
	textInfo    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "114"})
	textError   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "203"}).Bold(true)
	textSection = lipgloss.NewStyle().PaddingLeft(2)
)

// RenderMessage returns the styled message line, or "" when the slot is empty.
func RenderMessage(msg Message) string {
	switch msg.Kind {
	case KindInfo:
		return textInfo.Render(msg.Text)
	case KindError:
		return textError.Render(msg.Text)
	}
	return ""
}

// RenderRow renders one list entry. Lines longer than width are truncated.
func RenderRow(r Row, width int) string {
	lines := []string{
		textTitle.Render(fmt.Sprintf("%s (index: %d)", r.Project.Name, r.Index)),
		textSection.Render(r.Project.Description),
		textSection.Render(textLink.Render(r.Project.URL)),
	}
	return truncateLines(strings.Join(lines, "\n"), width)
}

// RenderText renders the message slot and project list for terminals.
func RenderText(snap Snapshot, msg Message, width int) string {
	var b strings.Builder
	header := fmt.Sprintf("Projects · %s", snap.Mode)
	if snap.Mode != "" && !snap.Persistent {
		header += " (not persisted)"
	}
	b.WriteString(textMuted.Render(header))
	b.WriteString("\n")
	if m := RenderMessage(msg); m != "" {
		b.WriteString(truncateLines(m, width))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if snap.Empty() {
		b.WriteString(textMuted.Render(EmptyPlaceholder))
		b.WriteString("\n")
		return b.String()
	}
	for i, r := range snap.Rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(RenderRow(r, width))
		b.WriteString("\n")
	}
	return b.String()
}

func truncateLines(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = ansi.Truncate(ln, width, "…")
	}
	return strings.Join(lines, "\n")
}
