package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ehr/praxis/internal/listedit"
	"github.com/ehr/praxis/pkg/pagination"
)

func shiftsResource() *listedit.Resource {
	return &listedit.Resource{
		Path:  "work-shifts",
		Title: "Work shift",
		Fields: []listedit.Field{
			{Name: "staffName", Label: "Staff member", Kind: listedit.KindText, Required: true, Column: true},
			{Name: "role", Label: "Role", Kind: listedit.KindSelect, Options: []string{"doctor", "nurse"}, Column: true},
			{Name: "hours", Label: "Hours", Kind: listedit.KindNumber, Column: true},
			{Name: "onCall", Label: "On call", Kind: listedit.KindBool},
			{Name: "createdAt", Label: "Created", ReadOnly: true},
		},
	}
}

func TestCell(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"bool", true, "yes"},
		{"integer float", float64(8), "8"},
		{"fraction", 38.5, "38.5"},
		{"whitespace", "a\n  b", "a b"},
		{"list", []any{"MO", "TU"}, "MO, TU"},
		{"object", map[string]any{"b": "2", "a": float64(1)}, "a=1 b=2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cell(tt.in); got != tt.want {
				t.Errorf("Cell(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCell_Truncates(t *testing.T) {
	got := Cell(strings.Repeat("x", 100))
	if !strings.HasSuffix(got, "…") || len([]rune(got)) > MaxCellWidth {
		t.Errorf("expected truncated cell, got %q", got)
	}
}

func TestTable_HeadersAndRows(t *testing.T) {
	v := listedit.View{
		Items: []listedit.Record{{"_id": "s1", "staffName": "Lisa Berger", "role": "nurse", "hours": float64(8)}},
		Meta:  pagination.Meta{Total: 1, Page: 1, Limit: 10},
	}
	out := Table(shiftsResource(), v)
	for _, want := range []string{"_id", "Staff member", "Role", "Hours", "Lisa Berger", "nurse", "s1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in table:\n%s", want, out)
		}
	}
	if strings.Contains(out, "On call") {
		t.Error("expected non-column field to be left out")
	}
}

func TestFooter(t *testing.T) {
	tests := []struct {
		name string
		view listedit.View
		want string
	}{
		{"empty", listedit.View{}, "No records"},
		{"loading", listedit.View{Loading: true}, "Loading…"},
		{"error", listedit.View{LoadError: errors.New("boom")}, "Load failed: boom"},
		{
			"second page",
			listedit.View{Items: []listedit.Record{{}}, PageIndex: 1, Meta: pagination.Meta{Total: 24, Page: 2, Limit: 10}},
			"Page 2 of 3 · 24 records",
		},
		{
			"derived",
			listedit.View{Items: []listedit.Record{{}}, Meta: pagination.Meta{Total: 1, Page: 1, Limit: 10, Derived: true}},
			"Page 1 of 1 · 1 records (server sent no total)",
		},
		{
			"filtered",
			listedit.View{Items: []listedit.Record{{}}, Meta: pagination.Meta{Total: 1, Page: 1, Limit: 10}, Filters: map[string]string{"role": "nurse", "date": "2026-03-02"}},
			"Page 1 of 1 · 1 records · filter date=2026-03-02, role=nurse",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Footer(tt.view); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRenderRecord(t *testing.T) {
	var buf bytes.Buffer
	rec := listedit.Record{"_id": "s1", "staffName": "Lisa Berger", "extra": "kept"}
	if err := RenderRecord(&buf, shiftsResource(), rec); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Lisa Berger") || !strings.Contains(out, "extra") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Index(out, "Staff member") > strings.Index(out, "extra") {
		t.Error("expected declared fields before unknown ones")
	}
}

// ---------------------------------------------------------------------------
// Prompts
// ---------------------------------------------------------------------------

func TestBindings_SkipReadOnlyAndPrefill(t *testing.T) {
	draft := listedit.Record{"staffName": "Eva", "hours": float64(6), "onCall": true, "createdAt": "x"}
	bs := bindings(shiftsResource(), draft)
	if len(bs) != 4 {
		t.Fatalf("expected 4 editable bindings, got %d", len(bs))
	}
	if bs[0].text != "Eva" || bs[2].text != "6" || !bs[3].flag {
		t.Errorf("unexpected prefill: %q %q %v", bs[0].text, bs[2].text, bs[3].flag)
	}

	bs[2].text = "7.5"
	got := collect(bs)
	if got["hours"] != 7.5 || got["onCall"] != true || got["staffName"] != "Eva" {
		t.Errorf("unexpected collected draft %v", got)
	}
	if _, ok := got["createdAt"]; ok {
		t.Error("expected read-only field to be left out")
	}
}

func TestBinding_Validate(t *testing.T) {
	bs := bindings(shiftsResource(), listedit.Record{})
	if err := bs[0].validate(""); err == nil || err.Error() != "Staff member is required" {
		t.Errorf("expected required error, got %v", err)
	}
	if err := bs[2].validate("many"); err == nil {
		t.Error("expected number error")
	}
	if err := bs[2].validate("8"); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestAutoConfirm(t *testing.T) {
	ok, err := AutoConfirm(true).Confirm(context.Background(), "Delete?")
	if err != nil || !ok {
		t.Errorf("expected yes, got %v %v", ok, err)
	}
	ok, _ = AutoConfirm(false).Confirm(context.Background(), "Delete?")
	if ok {
		t.Error("expected no")
	}
}
