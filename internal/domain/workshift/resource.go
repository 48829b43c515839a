// Package workshift describes staff rota entries.
package workshift

import "github.com/ehr/praxis/internal/listedit"

var Roles = []string{"doctor", "nurse", "assistant", "reception"}

// Resource returns the work shifts page descriptor.
func Resource() *listedit.Resource {
	return &listedit.Resource{
		Path:  "work-shifts",
		Title: "Work shift",
		Fields: []listedit.Field{
			{Name: "staffName", Label: "Staff member", Kind: listedit.KindText, Required: true, Rules: "max=120", Column: true},
			{Name: "role", Label: "Role", Kind: listedit.KindSelect, Required: true, Options: Roles, Column: true},
			{Name: "date", Label: "Date", Kind: listedit.KindDate, Required: true, Column: true},
			{Name: "startTime", Label: "Start", Kind: listedit.KindTime, Required: true, Column: true},
			{Name: "endTime", Label: "End", Kind: listedit.KindTime, Required: true, Column: true},
			{Name: "note", Label: "Note", Kind: listedit.KindTextarea, Rules: "max=500"},
		},
		Defaults: listedit.Record{"role": "assistant", "startTime": "08:00", "endTime": "16:00"},
	}
}

// Seed returns sample records for the development API.
func Seed() []listedit.Record {
	return []listedit.Record{
		{"staffName": "Dr. Anna Huber", "role": "doctor", "date": "2026-03-02", "startTime": "08:00", "endTime": "14:00"},
		{"staffName": "Lisa Berger", "role": "nurse", "date": "2026-03-02", "startTime": "07:30", "endTime": "15:30"},
		{"staffName": "Markus Gruber", "role": "reception", "date": "2026-03-03", "startTime": "08:00", "endTime": "16:00"},
	}
}
