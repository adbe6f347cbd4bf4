package tui

import (
	"net/url"
	"strings"

	"portfolio-cli/internal/manage"
	"portfolio-cli/internal/model"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type formField struct {
	name  string
	label string
}

var formFields = []formField{
	{model.FieldName, "Name"},
	{model.FieldDescription, "Description"},
	{model.FieldURL, "URL"},
	{model.FieldCoverBase, "Cover image"},
	{model.FieldCoverLG, "Large cover image"},
}

// projectForm is the create/update form. sel is empty when creating.
type projectForm struct {
	sel    manage.Selection
	inputs []textinput.Model
	focus  int
}

func newProjectForm(sel manage.Selection, values map[string]string) projectForm {
	f := projectForm{sel: sel}
	for i, fld := range formFields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 512
		ti.Cursor.SetMode(cursor.CursorStatic)
		ti.SetValue(values[fld.name])
		if i == 0 {
			ti.Focus()
		}
		f.inputs = append(f.inputs, ti)
	}
	return f
}

func (f projectForm) editing() bool { return !f.sel.Empty() }

func (f projectForm) title() string {
	if f.editing() {
		return "Update project"
	}
	return "Create project"
}

func (f *projectForm) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

func (f projectForm) update(msg tea.Msg) (projectForm, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

// values satisfies manage.Form.
func (f projectForm) values() url.Values {
	v := url.Values{}
	for i, fld := range formFields {
		v.Set(fld.name, f.inputs[i].Value())
	}
	return v
}

func (f projectForm) view(width int) string {
	bodyW := modalBodyWidth(width)
	for i := range f.inputs {
		f.inputs[i].Width = bodyW - 3
	}

	fields := make([]string, 0, len(formFields))
	for i, fld := range formFields {
		required := fld.name == model.FieldName || fld.name == model.FieldURL
		fields = append(fields, renderField(bodyW, fld.label, required, i == f.focus, f.inputs[i].View()))
	}
	return renderModalBox(width, f.title(), strings.Join(fields, "\n"))
}
