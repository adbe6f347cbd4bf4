package model

import (
	"fmt"
	"strings"
)

type Cover struct {
	Base string `json:"base"`
	LG   string `json:"lg"`
}

type Project struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Cover       Cover  `json:"cover"`
}

// Form field names shared by the web forms, the TUI form and CLI flags.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldURL         = "url"
	FieldCoverBase   = "cover-base"
	FieldCoverLG     = "cover-lg"
)

type FieldMissingError struct {
	Field string
}

func (e FieldMissingError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// Validate reports the first required field that is empty.
// Only name and url are required; description and covers may be blank.
func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return FieldMissingError{Field: FieldName}
	}
	if strings.TrimSpace(p.URL) == "" {
		return FieldMissingError{Field: FieldURL}
	}
	return nil
}

// Normalized trims surrounding whitespace from every field.
func (p Project) Normalized() Project {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.URL = strings.TrimSpace(p.URL)
	p.Cover.Base = strings.TrimSpace(p.Cover.Base)
	p.Cover.LG = strings.TrimSpace(p.Cover.LG)
	return p
}

// SameContent compares records ignoring the surrogate id.
func (p Project) SameContent(o Project) bool {
	p.ID, o.ID = "", ""
	return p == o
}

// FromForm builds a project from a form-like getter (url.Values.Get, a flag map, ...)
// and validates it.
func FromForm(get func(string) string) (Project, error) {
	p := Project{
		Name:        get(FieldName),
		Description: get(FieldDescription),
		URL:         get(FieldURL),
		Cover: Cover{
			Base: get(FieldCoverBase),
			LG:   get(FieldCoverLG),
		},
	}.Normalized()
	if err := p.Validate(); err != nil {
		return Project{}, err
	}
	return p, nil
}

// FormValues is the inverse of FromForm; used to prefill the update form.
func (p Project) FormValues() map[string]string {
	return map[string]string{
		FieldName:        p.Name,
		FieldDescription: p.Description,
		FieldURL:         p.URL,
		FieldCoverBase:   p.Cover.Base,
		FieldCoverLG:     p.Cover.LG,
	}
}
