// Package ecard describes e-card insurance checks. Records are keyed by
// "id" rather than "_id".
package ecard

import (
	"time"

	"github.com/ehr/praxis/internal/listedit"
)

const (
	StatusPending = "pending"
	StatusValid   = "valid"
	StatusInvalid = "invalid"
)

func init() {
	if err := listedit.RegisterRule("svnr", "must be a valid social insurance number", ValidSVNR); err != nil {
		panic(err)
	}
}

// Resource returns the e-card validations page descriptor.
func Resource() *listedit.Resource {
	return &listedit.Resource{
		Path:    "ecard-validations",
		Title:   "e-card validation",
		IDField: "id",
		Fields: []listedit.Field{
			{Name: "svNumber", Label: "SV number", Kind: listedit.KindText, Required: true, Rules: "svnr", Column: true},
			{Name: "patientName", Label: "Patient", Kind: listedit.KindText, Required: true, Rules: "max=120", Column: true},
			{Name: "status", Label: "Status", ReadOnly: true, Column: true},
			{Name: "checkedAt", Label: "Checked", ReadOnly: true, Column: true},
		},
		UniqueFields: []string{"svNumber"},
		Actions: []listedit.Action{
			{Name: "revalidate", Label: "Revalidate", Apply: revalidate},
		},
		Stamp: revalidate,
	}
}

func revalidate(rec listedit.Record) {
	status := StatusInvalid
	if s, ok := rec["svNumber"].(string); ok && ValidSVNR(s) {
		status = StatusValid
	}
	rec["status"] = status
	rec["checkedAt"] = time.Now().UTC().Format(time.RFC3339)
}

var svnrWeights = [10]int{3, 7, 9, 0, 5, 8, 4, 2, 1, 6}

// ValidSVNR checks a 10-digit Austrian social insurance number: the fourth
// digit is the weighted sum of the others modulo 11.
func ValidSVNR(s string) bool {
	if len(s) != 10 || s[0] == '0' {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		sum += int(s[i]-'0') * svnrWeights[i]
	}
	check := sum % 11
	return check != 10 && check == int(s[3]-'0')
}

// Seed returns sample records for the development API.
func Seed() []listedit.Record {
	return []listedit.Record{
		{"svNumber": "1237010180", "patientName": "Johann Bauer", "status": StatusValid, "checkedAt": "2026-03-02T08:15:00Z"},
		{"svNumber": "4567150366", "patientName": "Maria Wagner", "status": StatusPending},
	}
}
