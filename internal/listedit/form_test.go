package listedit

import (
	"errors"
	"strings"
	"testing"
)

func TestForm_OpenCreateUsesTemplate(t *testing.T) {
	res := clinicHoursResource()
	f := NewForm(res)
	f.Open(nil)

	if f.Mode() != ModeCreate || f.ID() != "" {
		t.Errorf("expected create mode without id, got %s %q", f.Mode(), f.ID())
	}
	if got := f.Draft()["rrule"]; got != "FREQ=WEEKLY;BYDAY=MO" {
		t.Errorf("expected template value, got %v", got)
	}

	_ = f.SetField("rrule", "changed")
	if res.Defaults["rrule"] != "FREQ=WEEKLY;BYDAY=MO" {
		t.Error("expected template not to be mutated through the draft")
	}
}

func TestForm_OpenEditSeedsFromRecord(t *testing.T) {
	rec := Record{"_id": "h1", "name": "Monday", "tags": []any{"a", "b"}}
	f := NewForm(clinicHoursResource())
	f.Open(rec)

	if f.Mode() != ModeUpdate || f.ID() != "h1" {
		t.Errorf("expected update of h1, got %s %q", f.Mode(), f.ID())
	}
	d := f.Draft()
	d["tags"].([]any)[0] = "z"
	if rec["tags"].([]any)[0] != "a" {
		t.Error("expected draft to deep-copy nested values")
	}
}

func TestForm_ResetAndClosed(t *testing.T) {
	f := NewForm(clinicHoursResource())
	if err := f.SetField("name", "x"); !errors.Is(err, ErrNoDialog) {
		t.Errorf("expected ErrNoDialog, got %v", err)
	}
	if err := f.Validate(); !errors.Is(err, ErrNoDialog) {
		t.Errorf("expected ErrNoDialog from Validate, got %v", err)
	}
	f.Open(nil)
	f.Reset()
	if f.IsOpen() || f.Draft() != nil {
		t.Error("expected draft discarded")
	}
}

func TestForm_PayloadOmitsIDAndReadOnly(t *testing.T) {
	f := NewForm(clinicHoursResource())
	f.Open(Record{"_id": "h1", "name": "Monday", "createdAt": "2026-01-01", "extra": "kept"})

	p := f.Payload()
	if _, ok := p["_id"]; ok {
		t.Error("expected _id stripped")
	}
	if _, ok := p["createdAt"]; ok {
		t.Error("expected read-only field stripped")
	}
	if p["extra"] != "kept" || p["name"] != "Monday" {
		t.Errorf("expected other fields kept, got %v", p)
	}
}

func TestCheckFields(t *testing.T) {
	res := &Resource{
		Path: "mixed",
		Fields: []Field{
			{Name: "code", Required: true, Rules: "max=4,uppercase"},
			{Name: "price", Kind: KindNumber, Rules: "gte=0"},
			{Name: "email", Kind: KindEmail},
			{Name: "day", Kind: KindDate},
			{Name: "from", Kind: KindTime},
			{Name: "status", Kind: KindSelect, Options: []string{"pending", "approved"}},
			{Name: "active", Kind: KindBool},
		},
	}

	tests := []struct {
		name  string
		draft Record
		field string
		want  string
	}{
		{"required", Record{}, "code", "is required"},
		{"blank is missing", Record{"code": "   "}, "code", "is required"},
		{"too long", Record{"code": "ABCDE"}, "code", "at most 4 characters"},
		{"upper case", Record{"code": "ab"}, "code", "upper case"},
		{"not a number", Record{"code": "A", "price": "ten"}, "price", "must be a number"},
		{"negative", Record{"code": "A", "price": -1.5}, "price", "at least 0"},
		{"email", Record{"code": "A", "email": "nope"}, "email", "valid email"},
		{"date", Record{"code": "A", "day": "02.03.2026"}, "day", "YYYY-MM-DD"},
		{"time", Record{"code": "A", "from": "9am"}, "from", "HH:MM"},
		{"select", Record{"code": "A", "status": "maybe"}, "status", "one of pending, approved"},
		{"bool", Record{"code": "A", "active": "yes"}, "active", "true or false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFields(res, tt.draft)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(ve.Fields) != 1 {
				t.Fatalf("expected 1 field error, got %+v", ve.Fields)
			}
			if ve.Fields[0].Field != tt.field || !strings.Contains(ve.Fields[0].Message, tt.want) {
				t.Errorf("expected %s %q, got %+v", tt.field, tt.want, ve.Fields[0])
			}
		})
	}

	ok := Record{
		"code": "AB", "price": "12.50", "email": "desk@praxis.example",
		"day": "2026-03-02", "from": "08:30", "status": "approved", "active": true,
	}
	if err := CheckFields(res, ok); err != nil {
		t.Errorf("expected valid draft, got %v", err)
	}
}

func TestCoerce(t *testing.T) {
	if got := Coerce(KindNumber, "12.5"); got != 12.5 {
		t.Errorf("expected 12.5, got %v", got)
	}
	if got := Coerce(KindNumber, ""); got != nil {
		t.Errorf("expected nil for empty number, got %v", got)
	}
	if got := Coerce(KindNumber, "ten"); got != "ten" {
		t.Errorf("expected unparsable input unchanged, got %v", got)
	}
	if got := Coerce(KindBool, "true"); got != true {
		t.Errorf("expected true, got %v", got)
	}
	if got := Coerce(KindText, "42"); got != "42" {
		t.Errorf("expected text untouched, got %v", got)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := CheckFields(clinicHoursResource(), Record{})
	if err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Errorf("unexpected message %v", err)
	}
}
