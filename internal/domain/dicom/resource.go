// Package dicom describes the imaging providers the practice exchanges
// studies with. Only the provider records are managed here.
package dicom

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ehr/praxis/internal/listedit"
)

// Resource returns the DICOM providers page descriptor.
func Resource() *listedit.Resource {
	return &listedit.Resource{
		Path:  "dicom-providers",
		Title: "DICOM provider",
		Fields: []listedit.Field{
			{Name: "name", Label: "Name", Kind: listedit.KindText, Required: true, Rules: "max=120", Column: true},
			{Name: "aeTitle", Label: "AE title", Kind: listedit.KindText, Required: true, Rules: "max=16,uppercase", Column: true},
			{Name: "host", Label: "Host", Kind: listedit.KindText, Required: true, Rules: "hostname_rfc1123|ip", Column: true},
			{Name: "port", Label: "Port", Kind: listedit.KindNumber, Required: true, Rules: "gte=1,lte=65535", Column: true},
			{Name: "apiKey", Label: "API key", ReadOnly: true},
		},
		Defaults:     listedit.Record{"port": float64(104)},
		UniqueFields: []string{"aeTitle"},
		Actions: []listedit.Action{
			{Name: "regenerate-api-key", Label: "Regenerate API key", Confirm: true, Apply: regenerateKey},
		},
		Stamp: regenerateKey,
	}
}

func regenerateKey(rec listedit.Record) {
	rec["apiKey"] = NewAPIKey()
}

// NewAPIKey returns a fresh provider key.
func NewAPIKey() string {
	return "dcm_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Seed returns sample records for the development API.
func Seed() []listedit.Record {
	return []listedit.Record{
		{"name": "Radiology Center West", "aeTitle": "RADWEST", "host": "pacs.radwest.example", "port": float64(104), "apiKey": NewAPIKey()},
		{"name": "Hospital PACS", "aeTitle": "HOSPPACS", "host": "10.20.0.15", "port": float64(11112), "apiKey": NewAPIKey()},
	}
}
