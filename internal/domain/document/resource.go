// Package document describes patient documents. New documents arrive as
// multipart uploads; metadata is edited afterwards.
package document

import "github.com/ehr/praxis/internal/listedit"

var Categories = []string{"report", "referral", "lab", "imaging", "other"}

// Resource returns the documents page descriptor.
func Resource() *listedit.Resource {
	return &listedit.Resource{
		Path:  "documents",
		Title: "Document",
		Fields: []listedit.Field{
			{Name: "title", Label: "Title", Kind: listedit.KindText, Required: true, Rules: "max=200", Column: true},
			{Name: "category", Label: "Category", Kind: listedit.KindSelect, Required: true, Options: Categories, Column: true},
			{Name: "patientName", Label: "Patient", Kind: listedit.KindText, Rules: "max=120", Column: true},
			{Name: "fileName", Label: "File", ReadOnly: true, Column: true},
			{Name: "contentType", Label: "Type", ReadOnly: true},
			{Name: "size", Label: "Size", ReadOnly: true},
			{Name: "uploadedAt", Label: "Uploaded", ReadOnly: true},
		},
		Defaults: listedit.Record{"category": "other"},
		Upload:   true,
	}
}

// Seed returns sample records for the development API.
func Seed() []listedit.Record {
	return []listedit.Record{
		{"title": "Discharge letter", "category": "report", "patientName": "Johann Bauer", "fileName": "discharge.pdf", "contentType": "application/pdf", "size": float64(48213), "uploadedAt": "2026-02-27T10:02:00Z"},
		{"title": "Blood panel February", "category": "lab", "patientName": "Maria Wagner", "fileName": "labs-0226.pdf", "contentType": "application/pdf", "size": float64(9120), "uploadedAt": "2026-02-26T16:45:00Z"},
	}
}
