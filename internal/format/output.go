package format

import (
	"encoding/json"
	"fmt"
	"io"
)

const (
	JSON  = "json"
	EDN   = "edn"
	Table = "table"
	// Text is a styled terminal rendering; only list-shaped commands produce it.
	Text = "text"
)

// Write renders v as json (default), edn or table.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", JSON:
		return WriteJSON(w, v, pretty)
	case EDN:
		return WriteEDN(w, v, pretty)
	case Table:
		return WriteTable(w, v)
	case Text:
		return fmt.Errorf("format text is not supported for %T", v)
	default:
		return fmt.Errorf("unknown format: %s (want json|edn|table|text)", format)
	}
}

func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
