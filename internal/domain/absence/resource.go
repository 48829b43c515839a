// Package absence describes staff absences (vacation, sick leave,
// training) and their approval workflow.
package absence

import "github.com/ehr/praxis/internal/listedit"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var Types = []string{"vacation", "sick", "training", "other"}

// Resource returns the absences page descriptor.
func Resource() *listedit.Resource {
	return &listedit.Resource{
		Path:  "absences",
		Title: "Absence",
		Fields: []listedit.Field{
			{Name: "staffName", Label: "Staff member", Kind: listedit.KindText, Required: true, Rules: "max=120", Column: true},
			{Name: "type", Label: "Type", Kind: listedit.KindSelect, Required: true, Options: Types, Column: true},
			{Name: "startDate", Label: "From", Kind: listedit.KindDate, Required: true, Column: true},
			{Name: "endDate", Label: "To", Kind: listedit.KindDate, Required: true, Column: true},
			{Name: "status", Label: "Status", ReadOnly: true, Column: true},
			{Name: "note", Label: "Note", Kind: listedit.KindTextarea, Rules: "max=500"},
		},
		Defaults: listedit.Record{"type": "vacation"},
		Actions: []listedit.Action{
			{Name: "approve", Label: "Approve", Apply: setStatus(StatusApproved)},
			{Name: "reject", Label: "Reject", Confirm: true, Apply: setStatus(StatusRejected)},
		},
		Stamp: setStatus(StatusPending),
	}
}

func setStatus(status string) func(listedit.Record) {
	return func(rec listedit.Record) { rec["status"] = status }
}

// Seed returns sample records for the development API.
func Seed() []listedit.Record {
	return []listedit.Record{
		{"staffName": "Dr. Anna Huber", "type": "vacation", "startDate": "2026-07-06", "endDate": "2026-07-17", "status": StatusPending},
		{"staffName": "Markus Gruber", "type": "training", "startDate": "2026-05-11", "endDate": "2026-05-12", "status": StatusApproved},
		{"staffName": "Eva Steiner", "type": "sick", "startDate": "2026-03-02", "endDate": "2026-03-04", "status": StatusApproved},
	}
}
