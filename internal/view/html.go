package view

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strconv"

	"portfolio-cli/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var fragments = template.Must(template.New("fragments").Funcs(template.FuncMap{
	"placeholder": func() string { return EmptyPlaceholder },
	"markdown":    MarkdownHTML,
}).ParseFS(templateFS, "templates/*.html"))

const (
	ListID         = "projects-list"
	UpdateSelectID = "update-select"
	DeleteSelectID = "delete-select"
	MessagesID     = "messages"
	ProjectGridID  = "project-grid"
)

type selectData struct {
	ID       string
	Bind     string
	OnChange template.JS
	Options  []Option
	Selected string
}

type messagesData struct {
	Info  string
	Error string
}

// SelectOpts controls the attributes of a rendered selector. Selected is a
// positional index; a negative value selects the placeholder. OnChange is a
// trusted datastar expression and is not escaped.
type SelectOpts struct {
	Selected int
	Bind     string
	OnChange string
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func ListHTML(snap Snapshot) (string, error) {
	return execute("projects-list", snap)
}

func UpdateSelectHTML(snap Snapshot, o SelectOpts) (string, error) {
	return execute("select", selectFor(UpdateSelectID, snap.UpdateOptions, o))
}

func DeleteSelectHTML(snap Snapshot, o SelectOpts) (string, error) {
	return execute("select", selectFor(DeleteSelectID, snap.DeleteOptions, o))
}

func MessagesHTML(msg Message) (string, error) {
	return execute("messages", messagesData{Info: msg.InfoText(), Error: msg.ErrorText()})
}

func CardHTML(p model.Project) (string, error) {
	return execute("project-card", p)
}

func CardsHTML(projects []model.Project) (string, error) {
	return execute("project-grid", projects)
}

func selectFor(id string, opts []Option, o SelectOpts) selectData {
	d := selectData{ID: id, Bind: o.Bind, OnChange: template.JS(o.OnChange), Options: opts}
	if o.Selected >= 0 && o.Selected < len(opts)-1 {
		d.Selected = strconv.Itoa(o.Selected)
	}
	return d
}

// RenderHTML writes the four regions a refresh replaces, in page order.
func RenderHTML(w io.Writer, snap Snapshot, msg Message) error {
	none := SelectOpts{Selected: -1}
	parts := []func() (string, error){
		func() (string, error) { return MessagesHTML(msg) },
		func() (string, error) { return ListHTML(snap) },
		func() (string, error) { return UpdateSelectHTML(snap, none) },
		func() (string, error) { return DeleteSelectHTML(snap, none) },
	}
	for _, part := range parts {
		s, err := part()
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, s+"\n"); err != nil {
			return err
		}
	}
	return nil
}
