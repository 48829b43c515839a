// Package listedit implements the list-edit pattern shared by every
// practice administration page: load a page of records, open a draft for
// create or edit, submit it, confirm deletes, run record actions, and reload
// from the server after every successful mutation.
package listedit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ehr/praxis/internal/validation"
)

// Record is one server record. Its shape is opaque apart from the
// identifier field named by Resource.IDField.
type Record = map[string]any

// FieldKind tells forms and the CLI how to coerce and check a value.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindTextarea FieldKind = "textarea"
	KindNumber   FieldKind = "number"
	KindBool     FieldKind = "bool"
	KindDate     FieldKind = "date"
	KindTime     FieldKind = "time"
	KindEmail    FieldKind = "email"
	KindSelect   FieldKind = "select"
)

// Field describes one editable property of a resource.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	// Rules is an extra go-playground/validator tag, e.g. "max=64".
	Rules    string
	Options  []string
	ReadOnly bool
	// Column marks the field for list output.
	Column bool
}

// DisplayLabel returns Label or, when empty, Name.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Action is a resource-specific endpoint: POST /<resource>/<id>/<name>.
type Action struct {
	Name    string
	Label   string
	Confirm bool
	// Apply mutates a record the way the server does. Only the development
	// API uses it.
	Apply func(rec Record)
}

// Resource describes one REST collection and how its page behaves.
type Resource struct {
	// Path is the collection path segment, e.g. "work-shifts".
	Path string
	// Title is the singular display name, e.g. "Work shift".
	Title string
	// IDField defaults to "_id".
	IDField string
	Fields  []Field
	// Defaults seed the draft in create mode.
	Defaults     Record
	UniqueFields []string
	Actions      []Action
	// Upload enables POST /<resource>/upload.
	Upload bool
	// ReadOnly disables create, edit and delete.
	ReadOnly bool
	// References are collections loaded alongside the primary list.
	References []string
	// RouteTokenParam names the query parameter carrying a route token.
	// When set, a controller refuses to work without one.
	RouteTokenParam string
	// Stamp sets the server-owned fields of a newly created record. Only
	// the development API uses it.
	Stamp func(rec Record)
}

// ID returns the identifier field name.
func (r *Resource) ID() string {
	if r.IDField == "" {
		return "_id"
	}
	return r.IDField
}

// Check reports descriptor mistakes.
func (r *Resource) Check() error {
	var errs []error
	if r.Path == "" || strings.Contains(r.Path, "/") {
		errs = append(errs, fmt.Errorf("invalid path %q", r.Path))
	}
	seen := map[string]bool{}
	for _, f := range r.Fields {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("%s: field without name", r.Path))
			continue
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate field %q", r.Path, f.Name))
		}
		seen[f.Name] = true
		if f.Kind == KindSelect && len(f.Options) == 0 {
			errs = append(errs, fmt.Errorf("%s: select field %q has no options", r.Path, f.Name))
		}
	}
	for _, u := range r.UniqueFields {
		if !seen[u] {
			errs = append(errs, fmt.Errorf("%s: unique field %q is not a field", r.Path, u))
		}
	}
	for _, a := range r.Actions {
		if a.Name == "" || strings.Contains(a.Name, "/") {
			errs = append(errs, fmt.Errorf("%s: invalid action %q", r.Path, a.Name))
		}
	}
	return errors.Join(errs...)
}

// Field returns the field named name.
func (r *Resource) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Action returns the action named name.
func (r *Resource) Action(name string) (Action, bool) {
	for _, a := range r.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

// Columns returns the fields shown in list output, id first.
func (r *Resource) Columns() []string {
	cols := []string{r.ID()}
	for _, f := range r.Fields {
		if f.Column && f.Name != r.ID() {
			cols = append(cols, f.Name)
		}
	}
	return cols
}

// Template returns a fresh create-mode draft.
func (r *Resource) Template() Record {
	if r.Defaults == nil {
		return Record{}
	}
	return CloneRecord(r.Defaults)
}

// Payload strips the identifier and read-only fields from draft.
func (r *Resource) Payload(draft Record) map[string]any {
	out := make(map[string]any, len(draft))
	for k, v := range draft {
		if k == r.ID() {
			continue
		}
		if f, ok := r.Field(k); ok && f.ReadOnly {
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

// RecordID returns the identifier of rec as a string.
func (r *Resource) RecordID(rec Record) string {
	return StringValue(rec[r.ID()])
}

// StringValue renders a decoded JSON value for display and comparison.
func StringValue(v any) string {
	return validation.FormatValue(v)
}

// CloneRecord deep-copies rec so drafts never alias loaded records.
func CloneRecord(rec Record) Record {
	if rec == nil {
		return nil
	}
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneRecord(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}
