package validation

import (
	"strings"
	"testing"
)

func categories() []map[string]any {
	return []map[string]any{
		{"_id": "c1", "code": "LAB", "name": "Laboratory"},
		{"_id": "c2", "code": "RAD", "name": "Radiology"},
		{"_id": "c3", "code": "GP", "name": "General practice"},
	}
}

func TestCheckUnique_NoConflict(t *testing.T) {
	res := CheckUnique(categories(), map[string]any{"code": "DERM", "name": "Dermatology"}, "_id", "code", "name")
	if !res.OK() {
		t.Errorf("expected no conflicts, got %+v", res.Conflicts)
	}
}

func TestCheckUnique_CaseInsensitiveTrimmed(t *testing.T) {
	res := CheckUnique(categories(), map[string]any{"code": "  lab "}, "_id", "code")
	if len(res.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(res.Conflicts))
	}
	c := res.Conflicts[0]
	if c.Field != "code" || c.Value != "lab" || c.ExistingID != "c1" {
		t.Errorf("unexpected conflict %+v", c)
	}
	if !strings.Contains(c.Message(), "c1") {
		t.Errorf("expected message to name the existing record, got %q", c.Message())
	}
}

func TestCheckUnique_ExcludesSelf(t *testing.T) {
	res := CheckUnique(categories(), map[string]any{"_id": "c2", "code": "RAD"}, "_id", "code")
	if !res.OK() {
		t.Errorf("expected editing a record not to clash with itself, got %+v", res.Conflicts)
	}
}

func TestCheckUnique_MultipleFields(t *testing.T) {
	res := CheckUnique(categories(), map[string]any{"_id": "new", "code": "GP", "name": "radiology"}, "_id", "name", "code")
	if len(res.Conflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %+v", res.Conflicts)
	}
	fields := res.Fields()
	if len(fields) != 2 || fields[0] != "code" || fields[1] != "name" {
		t.Errorf("expected sorted fields [code name], got %v", fields)
	}
}

func TestCheckUnique_EmptyCandidateValue(t *testing.T) {
	coll := []map[string]any{{"_id": "x", "code": ""}}
	res := CheckUnique(coll, map[string]any{"code": "   "}, "_id", "code")
	if !res.OK() {
		t.Errorf("expected blank values never to conflict, got %+v", res.Conflicts)
	}
}

func TestCheckUnique_NumericValues(t *testing.T) {
	coll := []map[string]any{{"id": float64(7), "number": float64(42)}}
	res := CheckUnique(coll, map[string]any{"number": 42}, "id", "number")
	if len(res.Conflicts) != 1 || res.Conflicts[0].ExistingID != "7" {
		t.Errorf("expected numeric clash against id 7, got %+v", res.Conflicts)
	}
}

func TestCheckUnique_EmptyInputs(t *testing.T) {
	if !CheckUnique(nil, map[string]any{"code": "A"}, "_id", "code").OK() {
		t.Error("expected empty collection to be OK")
	}
	if !CheckUnique(categories(), map[string]any{"code": "LAB"}, "_id").OK() {
		t.Error("expected no fields to be OK")
	}
}

func TestCheckUnique_LargeNumbersPrintWhole(t *testing.T) {
	existing := []map[string]any{{"id": float64(1000000), "code": float64(2500000)}}
	res := CheckUnique(existing, map[string]any{"code": float64(2500000)}, "id", "code")
	if len(res.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(res.Conflicts))
	}
	c := res.Conflicts[0]
	if c.Value != "2500000" || c.ExistingID != "1000000" {
		t.Errorf("expected plain integers, got value %q id %q", c.Value, c.ExistingID)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"LAB", "LAB"},
		{float64(1e6), "1000000"},
		{float64(-3), "-3"},
		{42.9, "42.9"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
