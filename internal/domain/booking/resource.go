// Package booking describes appointment requests made through the public
// online booking page. The page is scoped to one clinic by a route token.
package booking

import "github.com/ehr/praxis/internal/listedit"

const (
	StatusRequested = "requested"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCheckedIn = "checked-in"

	// TokenParam is the query parameter carrying the clinic route token.
	TokenParam = "clinic"
)

// Resource returns the online bookings page descriptor.
func Resource() *listedit.Resource {
	return &listedit.Resource{
		Path:  "online-bookings",
		Title: "Online booking",
		Fields: []listedit.Field{
			{Name: "patientName", Label: "Patient", Kind: listedit.KindText, Required: true, Rules: "max=120", Column: true},
			{Name: "email", Label: "Email", Kind: listedit.KindEmail, Column: true},
			{Name: "phone", Label: "Phone", Kind: listedit.KindText, Rules: "max=32"},
			{Name: "serviceCode", Label: "Service", Kind: listedit.KindText, Required: true, Column: true},
			{Name: "date", Label: "Date", Kind: listedit.KindDate, Required: true, Column: true},
			{Name: "time", Label: "Time", Kind: listedit.KindTime, Required: true, Column: true},
			{Name: "status", Label: "Status", ReadOnly: true, Column: true},
		},
		Actions: []listedit.Action{
			{Name: "confirm", Label: "Confirm", Apply: setStatus(StatusConfirmed)},
			{Name: "cancel", Label: "Cancel", Confirm: true, Apply: setStatus(StatusCancelled)},
			{Name: "check-in", Label: "Check in", Apply: setStatus(StatusCheckedIn)},
		},
		References:      []string{"service-categories"},
		RouteTokenParam: TokenParam,
		Stamp:           setStatus(StatusRequested),
	}
}

func setStatus(status string) func(listedit.Record) {
	return func(rec listedit.Record) { rec["status"] = status }
}

// Seed returns sample records for the development API.
func Seed() []listedit.Record {
	return []listedit.Record{
		{"patientName": "Johann Bauer", "email": "j.bauer@example.at", "serviceCode": "CONS", "date": "2026-03-09", "time": "09:30", "status": StatusRequested},
		{"patientName": "Maria Wagner", "phone": "+43 660 1234567", "serviceCode": "VACC", "date": "2026-03-10", "time": "11:00", "status": StatusConfirmed},
	}
}
