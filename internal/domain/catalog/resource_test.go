package catalog

import (
	"testing"

	"github.com/ehr/praxis/internal/listedit"
	"github.com/ehr/praxis/internal/validation"
)

func TestTariffPriceIsNumeric(t *testing.T) {
	f := listedit.NewForm(Tariffs())
	f.Open(nil)
	_ = f.SetField("code", "T300")
	_ = f.SetField("name", "Follow-up")
	_ = f.SetField("price", "42.90")

	if err := f.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	p := f.Payload()
	if p["price"] != 42.9 {
		t.Errorf("expected numeric price 42.9, got %#v", p["price"])
	}
	if p["currency"] != "EUR" {
		t.Errorf("expected default currency, got %v", p["currency"])
	}
}

func TestServiceCategoryDuplicates(t *testing.T) {
	res := ServiceCategories()
	existing := SeedServiceCategories()
	for i, rec := range existing {
		rec["_id"] = string(rune('a' + i))
	}

	got := validation.CheckUnique(existing, listedit.Record{"code": "lab", "name": "Labor"}, res.ID(), res.UniqueFields...)
	if len(got.Conflicts) != 1 || got.Conflicts[0].Field != "code" || got.Conflicts[0].ExistingID != "b" {
		t.Errorf("expected code clash with b, got %+v", got.Conflicts)
	}
}

func TestICD10IsReadOnlyCatalog(t *testing.T) {
	res := ICD10Codes()
	if !res.ReadOnly || res.ID() != "code" {
		t.Errorf("expected read-only catalog keyed by code, got %+v", res)
	}
	c := listedit.NewController(res, nil)
	if err := c.OpenCreate(); err != listedit.ErrReadOnly {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}
