package ports

import (
	"context"
	"errors"
)

// ErrFormCancelled is returned by FormPrompter.Open when the user backs out.
var ErrFormCancelled = errors.New("form cancelled")

// FieldKind selects how a form field is presented and read.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldPassword FieldKind = "password"
	FieldSelect   FieldKind = "select"
)

// FormOption is a selectable value with its display label.
type FormOption struct {
	Value string
	Label string
}

// FormField describes a single input. Disabled fields are shown but keep Default.
type FormField struct {
	Name     string
	Label    string
	Kind     FieldKind
	Default  string
	Options  []FormOption
	Required bool
	Disabled bool
}

// FormSpec describes a whole form.
type FormSpec struct {
	Title  string
	Fields []FormField
}

// FormResult maps field names to submitted values, disabled fields included.
type FormResult map[string]string

// FormPrompter collects a FormSpec from the user.
// Open returns ErrFormCancelled when the user cancels.
type FormPrompter interface {
	Open(ctx context.Context, spec FormSpec) (FormResult, error)
}
