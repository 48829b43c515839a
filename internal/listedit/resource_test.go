package listedit

import (
	"strings"
	"testing"
)

func TestResource_Check(t *testing.T) {
	if err := clinicHoursResource().Check(); err != nil {
		t.Errorf("expected valid resource, got %v", err)
	}

	bad := &Resource{
		Path: "a/b",
		Fields: []Field{
			{Name: "x"},
			{Name: "x"},
			{Name: "s", Kind: KindSelect},
		},
		UniqueFields: []string{"missing"},
		Actions:      []Action{{Name: ""}},
	}
	err := bad.Check()
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"invalid path", "duplicate field", "no options", "unique field", "invalid action"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestResource_IDAndColumns(t *testing.T) {
	r := &Resource{Path: "icd10-codes", IDField: "code", Fields: []Field{
		{Name: "code", Column: true},
		{Name: "title", Column: true},
		{Name: "notes"},
	}}
	cols := r.Columns()
	if len(cols) != 2 || cols[0] != "code" || cols[1] != "title" {
		t.Errorf("unexpected columns %v", cols)
	}
	if (&Resource{}).ID() != "_id" {
		t.Error("expected _id default")
	}
}

func TestResource_RecordID(t *testing.T) {
	r := &Resource{IDField: "id"}
	tests := []struct {
		val  any
		want string
	}{
		{"abc", "abc"},
		{float64(42), "42"},
		{1.5, "1.5"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := r.RecordID(Record{"id": tt.val}); got != tt.want {
			t.Errorf("RecordID(%v) = %q, want %q", tt.val, got, tt.want)
		}
	}
}

func TestResource_TemplateIsFresh(t *testing.T) {
	r := &Resource{Defaults: Record{"days": []any{"MO"}}}
	a := r.Template()
	a["days"].([]any)[0] = "TU"
	if r.Template()["days"].([]any)[0] != "MO" {
		t.Error("expected each template to be an independent copy")
	}
	if got := (&Resource{}).Template(); got == nil || len(got) != 0 {
		t.Errorf("expected empty template, got %v", got)
	}
}
