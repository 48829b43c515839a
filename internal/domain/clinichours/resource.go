// Package clinichours describes recurring opening hours. Each entry carries
// an iCalendar RRULE (RFC 5545) and a daily time window.
package clinichours

import (
	"strconv"
	"strings"

	"github.com/ehr/praxis/internal/listedit"
)

func init() {
	if err := listedit.RegisterRule("rrule", "must be a valid RRULE", ValidRRule); err != nil {
		panic(err)
	}
}

// Resource returns the clinic hours page descriptor.
func Resource() *listedit.Resource {
	return &listedit.Resource{
		Path:  "clinic-hours",
		Title: "Clinic hours",
		Fields: []listedit.Field{
			{Name: "name", Label: "Name", Kind: listedit.KindText, Required: true, Rules: "max=60", Column: true},
			{Name: "rrule", Label: "Recurrence", Kind: listedit.KindText, Required: true, Rules: "rrule", Column: true},
			{Name: "startTime", Label: "Opens", Kind: listedit.KindTime, Required: true, Column: true},
			{Name: "endTime", Label: "Closes", Kind: listedit.KindTime, Required: true, Column: true},
			{Name: "location", Label: "Location", Kind: listedit.KindText, Rules: "max=120"},
		},
		Defaults: listedit.Record{
			"rrule":     "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR",
			"startTime": "08:00",
			"endTime":   "12:00",
		},
		UniqueFields: []string{"name"},
	}
}

var frequencies = map[string]bool{
	"SECONDLY": true, "MINUTELY": true, "HOURLY": true,
	"DAILY": true, "WEEKLY": true, "MONTHLY": true, "YEARLY": true,
}

var ruleParts = map[string]bool{
	"FREQ": true, "UNTIL": true, "COUNT": true, "INTERVAL": true,
	"BYSECOND": true, "BYMINUTE": true, "BYHOUR": true, "BYDAY": true,
	"BYMONTHDAY": true, "BYYEARDAY": true, "BYWEEKNO": true, "BYMONTH": true,
	"BYSETPOS": true, "WKST": true,
}

// ValidRRule is a syntactic check: known parts, a valid FREQ, numeric
// COUNT/INTERVAL, and not both COUNT and UNTIL. Part values are not
// range-checked; the server has the final say.
func ValidRRule(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "RRULE:")
	if s == "" {
		return false
	}
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok || value == "" {
			return false
		}
		key = strings.ToUpper(key)
		if !ruleParts[key] || seen[key] {
			return false
		}
		seen[key] = true
		switch key {
		case "FREQ":
			if !frequencies[strings.ToUpper(value)] {
				return false
			}
		case "COUNT", "INTERVAL":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return false
			}
		}
	}
	return seen["FREQ"] && !(seen["COUNT"] && seen["UNTIL"])
}

// Seed returns sample records for the development API.
func Seed() []listedit.Record {
	return []listedit.Record{
		{"name": "Weekday mornings", "rrule": "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR", "startTime": "08:00", "endTime": "12:00", "location": "Main office"},
		{"name": "Thursday afternoon", "rrule": "FREQ=WEEKLY;BYDAY=TH", "startTime": "14:00", "endTime": "18:00", "location": "Main office"},
	}
}
