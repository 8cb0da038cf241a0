package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/target/taskdesk/internal/ports"
)

// linePrompter fills a FormSpec one line per field. An empty line keeps the
// default; end of input cancels the form.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

var _ ports.FormPrompter = (*linePrompter)(nil)

func (p *linePrompter) Open(ctx context.Context, spec ports.FormSpec) (ports.FormResult, error) {
	if spec.Title != "" {
		if err := writef(p.out, "%s\n", spec.Title); err != nil {
			return nil, err
		}
	}
	res := ports.FormResult{}
	for _, f := range spec.Fields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.Disabled {
			if err := writef(p.out, "  %s: %s (fixed)\n", f.Label, optionLabel(f, f.Default)); err != nil {
				return nil, err
			}
			res[f.Name] = f.Default
			continue
		}
		v, err := p.ask(f)
		if err != nil {
			return nil, err
		}
		res[f.Name] = v
	}
	return res, nil
}

func (p *linePrompter) ask(f ports.FormField) (string, error) {
	if f.Kind == ports.FieldSelect {
		for i, o := range f.Options {
			if err := writef(p.out, "    %d) %s\n", i+1, o.Label); err != nil {
				return "", err
			}
		}
	}
	for {
		prompt := "  " + f.Label
		if f.Default != "" && f.Kind != ports.FieldPassword {
			prompt += " [" + optionLabel(f, f.Default) + "]"
		}
		if err := writef(p.out, "%s: ", prompt); err != nil {
			return "", err
		}

		line, err := p.in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			if errors.Is(err, io.EOF) {
				return "", ports.ErrFormCancelled
			}
			return "", fmt.Errorf("read %s: %w", f.Name, err)
		}
		line = strings.TrimRight(line, "\r\n")
		if f.Kind != ports.FieldPassword {
			line = strings.TrimSpace(line)
		}

		if line == "" {
			line = f.Default
		}
		if f.Kind == ports.FieldSelect && line != "" {
			v, ok := resolveOption(f, line)
			if !ok {
				if werr := writef(p.out, "  choose one of the listed options\n"); werr != nil {
					return "", werr
				}
				continue
			}
			line = v
		}
		if f.Required && line == "" {
			if werr := writef(p.out, "  %s is required\n", f.Label); werr != nil {
				return "", werr
			}
			continue
		}
		return line, nil
	}
}

// resolveOption accepts an option's value or label, then its list number.
func resolveOption(f ports.FormField, in string) (string, bool) {
	for _, o := range f.Options {
		if strings.EqualFold(o.Value, in) || strings.EqualFold(o.Label, in) {
			return o.Value, true
		}
	}
	if n, err := strconv.Atoi(in); err == nil && n >= 1 && n <= len(f.Options) {
		return f.Options[n-1].Value, true
	}
	return "", false
}

func optionLabel(f ports.FormField, value string) string {
	for _, o := range f.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}
