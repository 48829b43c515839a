package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/ehr/praxis/internal/listedit"
)

// ErrAborted is returned when the user leaves a form with ctrl+c or esc.
var ErrAborted = errors.New("aborted")

// PromptConfirmer asks a yes/no question in the terminal.
type PromptConfirmer struct{}

func (PromptConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(prompt).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithShowHelp(false).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

// AutoConfirm answers every question the same way without asking. The CLI
// uses AutoConfirm(true) for --yes.
type AutoConfirm bool

func (a AutoConfirm) Confirm(context.Context, string) (bool, error) {
	return bool(a), nil
}

// binding connects one huh field to a draft value.
type binding struct {
	field listedit.Field
	text  string
	flag  bool
}

func (b *binding) value() any {
	if b.field.Kind == listedit.KindBool {
		return b.flag
	}
	return listedit.Coerce(b.field.Kind, b.text)
}

func newBinding(f listedit.Field, current any) *binding {
	b := &binding{field: f}
	if f.Kind == listedit.KindBool {
		b.flag, _ = current.(bool)
		return b
	}
	b.text = listedit.StringValue(current)
	return b
}

func (b *binding) validate(s string) error {
	if msg := listedit.CheckValue(b.field, s); msg != "" {
		return fmt.Errorf("%s %s", b.field.DisplayLabel(), msg)
	}
	return nil
}

func (b *binding) huhField() huh.Field {
	f := b.field
	switch f.Kind {
	case listedit.KindBool:
		return huh.NewConfirm().Title(f.DisplayLabel()).Value(&b.flag)
	case listedit.KindSelect:
		opts := make([]huh.Option[string], 0, len(f.Options)+1)
		if !f.Required {
			opts = append(opts, huh.NewOption("(none)", ""))
		}
		opts = append(opts, huh.NewOptions(f.Options...)...)
		return huh.NewSelect[string]().Title(f.DisplayLabel()).Options(opts...).Value(&b.text)
	case listedit.KindTextarea:
		return huh.NewText().Title(f.DisplayLabel()).Value(&b.text).Validate(b.validate)
	default:
		in := huh.NewInput().Title(f.DisplayLabel()).Value(&b.text).Validate(b.validate)
		if hint := kindHint(f.Kind); hint != "" {
			in = in.Description(hint)
		}
		return in
	}
}

func kindHint(k listedit.FieldKind) string {
	switch k {
	case listedit.KindDate:
		return "YYYY-MM-DD"
	case listedit.KindTime:
		return "HH:MM"
	case listedit.KindNumber:
		return "number"
	}
	return ""
}

func bindings(res *listedit.Resource, draft listedit.Record) []*binding {
	out := make([]*binding, 0, len(res.Fields))
	for _, f := range res.Fields {
		if f.ReadOnly {
			continue
		}
		out = append(out, newBinding(f, draft[f.Name]))
	}
	return out
}

// PromptDraft asks for every editable field of res, prefilled from draft,
// and returns the edited values.
func PromptDraft(ctx context.Context, res *listedit.Resource, draft listedit.Record) (listedit.Record, error) {
	bs := bindings(res, draft)
	fields := make([]huh.Field, 0, len(bs))
	for _, b := range bs {
		fields = append(fields, b.huhField())
	}

	err := huh.NewForm(huh.NewGroup(fields...).Title(res.Title)).
		WithShowErrors(true).
		RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return nil, ErrAborted
	}
	if err != nil {
		return nil, err
	}
	return collect(bs), nil
}

func collect(bs []*binding) listedit.Record {
	out := make(listedit.Record, len(bs))
	for _, b := range bs {
		out[b.field.Name] = b.value()
	}
	return out
}
