package view

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"portfolio-cli/internal/model"

	"github.com/charmbracelet/glamour"
)

var (
	cardRendererMu sync.Mutex
	// Keyed by style + wrap width. Auto style probes the terminal, so callers
	// pick "light" or "dark" explicitly.
	cardRenderers = map[string]*glamour.TermRenderer{}
)

// CardMarkdown is the markdown body of one project card.
func CardMarkdown(p model.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", p.Name)
	if d := strings.TrimSpace(p.Description); d != "" {
		b.WriteString(d)
		b.WriteString("\n\n")
	}
	if p.Cover.Base != "" {
		fmt.Fprintf(&b, "![Cover for %s project](%s)\n\n", p.Name, p.Cover.Base)
	}
	fmt.Fprintf(&b, "[View project](%s)\n", p.URL)
	return b.String()
}

func CardsMarkdown(projects []model.Project) string {
	if len(projects) == 0 {
		return "_" + EmptyPlaceholder + "_\n"
	}
	parts := make([]string, 0, len(projects))
	for _, p := range projects {
		parts = append(parts, CardMarkdown(p))
	}
	return strings.Join(parts, "\n---\n\n")
}

// RenderCards renders the card grid as styled terminal text. style is
// "light" or "dark". Rendering failures fall back to the raw markdown.
func RenderCards(projects []model.Project, style string, width int) string {
	md := CardsMarkdown(projects)
	if width < 20 {
		width = 20
	}
	if style != "light" {
		style = "dark"
	}
	key := style + ":" + strconv.Itoa(width)

	cardRendererMu.Lock()
	r := cardRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			cardRendererMu.Unlock()
			return md
		}
		cardRenderers[key] = rr
		r = rr
	}
	cardRendererMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
