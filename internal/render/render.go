// Package render writes command results as aligned tables or JSON,
// optionally projected through a JMESPath query.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat normalizes a --output value.
func ParseFormat(v string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(v))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid options: table, json)", v)
	}
}

// Table is a header row plus data rows.
type Table struct {
	Header []string
	Rows   [][]string
	// Footer is printed below the rows when non-empty.
	Footer string
}

// Renderer writes values in the configured format.
type Renderer struct {
	w      io.Writer
	format Format
	query  string
}

// New validates query and returns a Renderer. A non-empty query implies JSON output.
func New(w io.Writer, format Format, query string) (*Renderer, error) {
	query = strings.TrimSpace(query)
	if query != "" {
		if _, err := jmespath.Compile(query); err != nil {
			return nil, fmt.Errorf("invalid --query: %w", err)
		}
		format = FormatJSON
	}
	return &Renderer{w: w, format: format, query: query}, nil
}

// Render writes v as JSON or, in table mode, the table built by table.
func (r *Renderer) Render(v any, table func() Table) error {
	if r.format == FormatJSON || table == nil {
		return r.json(v)
	}
	return r.table(table())
}

func (r *Renderer) json(v any) error {
	out := v
	if r.query != "" {
		generic, err := toGeneric(v)
		if err != nil {
			return err
		}
		if out, err = jmespath.Search(r.query, generic); err != nil {
			return fmt.Errorf("evaluate --query: %w", err)
		}
	}
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// toGeneric round-trips v through JSON so queries see the wire field names.
func toGeneric(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return generic, nil
}

func (r *Renderer) table(t Table) error {
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	if len(t.Header) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Header, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if t.Footer != "" {
		_, err := fmt.Fprintln(r.w, t.Footer)
		return err
	}
	return nil
}

// Message writes a plain line in table mode and {"message": ...} in JSON mode.
func (r *Renderer) Message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if r.format == FormatJSON {
		return r.json(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(r.w, msg)
	return err
}
