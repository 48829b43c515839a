package dicom

import (
	"strings"
	"testing"

	"github.com/ehr/praxis/internal/listedit"
)

func TestRegenerateAPIKey(t *testing.T) {
	a, ok := Resource().Action("regenerate-api-key")
	if !ok || !a.Confirm {
		t.Fatalf("expected confirmed regenerate action, got %+v", a)
	}
	rec := listedit.Record{"apiKey": "dcm_old"}
	a.Apply(rec)
	key, _ := rec["apiKey"].(string)
	if key == "dcm_old" || !strings.HasPrefix(key, "dcm_") || len(key) != 36 {
		t.Errorf("unexpected key %q", key)
	}
}

func TestResource_FieldChecks(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
	}{
		{"lower case AE title", "aeTitle", "pacs"},
		{"AE title too long", "aeTitle", "ABCDEFGHIJKLMNOPQ"},
		{"bad host", "host", "not a host"},
		{"port zero", "port", float64(0)},
		{"port too high", "port", "70000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := listedit.Record{"name": "P", "aeTitle": "PACS", "host": "10.0.0.1", "port": float64(104)}
			draft[tt.field] = listedit.Coerce(listedit.KindNumber, tt.value)
			if tt.field != "port" {
				draft[tt.field] = tt.value
			}
			fe := listedit.FieldErrorsOf(listedit.CheckFields(Resource(), draft))
			if len(fe) != 1 || fe[0].Field != tt.field {
				t.Errorf("expected %s error, got %+v", tt.field, fe)
			}
		})
	}
}
