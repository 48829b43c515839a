// Package catalog describes the practice's reference catalogs: service
// categories, medical specialties, tariffs and the ICD-10 code list.
package catalog

import "github.com/ehr/praxis/internal/listedit"

// ServiceCategories returns the service categories page descriptor.
func ServiceCategories() *listedit.Resource {
	return &listedit.Resource{
		Path:  "service-categories",
		Title: "Service category",
		Fields: []listedit.Field{
			{Name: "code", Label: "Code", Kind: listedit.KindText, Required: true, Rules: "max=16,uppercase", Column: true},
			{Name: "name", Label: "Name", Kind: listedit.KindText, Required: true, Rules: "max=80", Column: true},
			{Name: "description", Label: "Description", Kind: listedit.KindTextarea, Rules: "max=500"},
			{Name: "active", Label: "Active", Kind: listedit.KindBool, Column: true},
		},
		Defaults:     listedit.Record{"active": true},
		UniqueFields: []string{"code", "name"},
	}
}

// MedicalSpecialties returns the medical specialties page descriptor.
func MedicalSpecialties() *listedit.Resource {
	return &listedit.Resource{
		Path:  "medical-specialties",
		Title: "Medical specialty",
		Fields: []listedit.Field{
			{Name: "code", Label: "Code", Kind: listedit.KindText, Required: true, Rules: "max=16", Column: true},
			{Name: "name", Label: "Name", Kind: listedit.KindText, Required: true, Rules: "max=80", Column: true},
		},
		UniqueFields: []string{"code", "name"},
	}
}

var Currencies = []string{"EUR", "CHF"}

// Tariffs returns the tariffs page descriptor. Prices are numeric on the
// wire.
func Tariffs() *listedit.Resource {
	return &listedit.Resource{
		Path:  "tariffs",
		Title: "Tariff",
		Fields: []listedit.Field{
			{Name: "code", Label: "Code", Kind: listedit.KindText, Required: true, Rules: "max=16", Column: true},
			{Name: "name", Label: "Name", Kind: listedit.KindText, Required: true, Rules: "max=120", Column: true},
			{Name: "price", Label: "Price", Kind: listedit.KindNumber, Required: true, Rules: "gte=0", Column: true},
			{Name: "currency", Label: "Currency", Kind: listedit.KindSelect, Required: true, Options: Currencies, Column: true},
			{Name: "categoryCode", Label: "Category", Kind: listedit.KindText},
		},
		Defaults:     listedit.Record{"currency": "EUR"},
		UniqueFields: []string{"code"},
		References:   []string{"service-categories"},
	}
}

// ICD10Codes returns the read-only ICD-10 catalog descriptor. Codes are
// their own identifiers.
func ICD10Codes() *listedit.Resource {
	return &listedit.Resource{
		Path:    "icd10-codes",
		Title:   "ICD-10 code",
		IDField: "code",
		Fields: []listedit.Field{
			{Name: "code", Label: "Code", Kind: listedit.KindText, Column: true},
			{Name: "title", Label: "Title", Kind: listedit.KindText, Column: true},
			{Name: "chapter", Label: "Chapter", Kind: listedit.KindText, Column: true},
		},
		ReadOnly: true,
	}
}

// SeedServiceCategories returns sample records for the development API.
func SeedServiceCategories() []listedit.Record {
	return []listedit.Record{
		{"code": "CONS", "name": "Consultation", "active": true},
		{"code": "LAB", "name": "Laboratory", "active": true},
		{"code": "VACC", "name": "Vaccination", "active": true},
	}
}

// SeedMedicalSpecialties returns sample records for the development API.
func SeedMedicalSpecialties() []listedit.Record {
	return []listedit.Record{
		{"code": "AM", "name": "General medicine"},
		{"code": "IM", "name": "Internal medicine"},
		{"code": "DERM", "name": "Dermatology"},
	}
}

// SeedTariffs returns sample records for the development API.
func SeedTariffs() []listedit.Record {
	return []listedit.Record{
		{"code": "T100", "name": "Initial consultation", "price": 65.0, "currency": "EUR", "categoryCode": "CONS"},
		{"code": "T210", "name": "Blood panel", "price": 38.5, "currency": "EUR", "categoryCode": "LAB"},
	}
}

// SeedICD10Codes returns sample records for the development API.
func SeedICD10Codes() []listedit.Record {
	return []listedit.Record{
		{"code": "E11", "title": "Type 2 diabetes mellitus", "chapter": "IV"},
		{"code": "I10", "title": "Essential (primary) hypertension", "chapter": "IX"},
		{"code": "J06.9", "title": "Acute upper respiratory infection, unspecified", "chapter": "X"},
	}
}
