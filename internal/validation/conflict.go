// Package validation holds the duplicate check shared by every list page.
//
// The check is advisory. It scans the collection the caller already has in
// memory, so it can only see the current page and makes no claim about what
// the server will accept.
package validation

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Conflict is one clash between the candidate and an existing record.
type Conflict struct {
	Field      string `json:"field"`
	Value      string `json:"value"`
	ExistingID string `json:"existing_id"`
}

// Message renders the conflict for display next to the field.
func (c Conflict) Message() string {
	return fmt.Sprintf("%s %q is already used by %s", c.Field, c.Value, c.ExistingID)
}

// ConflictResult is the outcome of CheckUnique.
type ConflictResult struct {
	Conflicts []Conflict `json:"conflicts"`
}

// OK reports whether no conflicts were found.
func (r ConflictResult) OK() bool { return len(r.Conflicts) == 0 }

// Fields returns the distinct field names that clash, sorted.
func (r ConflictResult) Fields() []string {
	seen := make(map[string]struct{}, len(r.Conflicts))
	var out []string
	for _, c := range r.Conflicts {
		if _, ok := seen[c.Field]; ok {
			continue
		}
		seen[c.Field] = struct{}{}
		out = append(out, c.Field)
	}
	sort.Strings(out)
	return out
}

// CheckUnique compares candidate against collection on each of fields.
// Values are compared as trimmed, case-insensitive strings; empty candidate
// values never conflict. The record whose idField equals the candidate's is
// skipped so that editing a record does not clash with itself.
func CheckUnique(collection []map[string]any, candidate map[string]any, idField string, fields ...string) ConflictResult {
	var result ConflictResult
	if len(collection) == 0 || len(fields) == 0 {
		return result
	}
	selfID := normalize(candidate[idField])

	for _, field := range fields {
		want := normalize(candidate[field])
		if want == "" {
			continue
		}
		for _, rec := range collection {
			id := normalize(rec[idField])
			if selfID != "" && id == selfID {
				continue
			}
			if normalize(rec[field]) != want {
				continue
			}
			result.Conflicts = append(result.Conflicts, Conflict{
				Field:      field,
				Value:      strings.TrimSpace(FormatValue(candidate[field])),
				ExistingID: strings.TrimSpace(FormatValue(rec[idField])),
			})
		}
	}
	return result
}

func normalize(v any) string {
	return strings.ToLower(strings.TrimSpace(FormatValue(v)))
}

// FormatValue renders a decoded JSON value as text. Whole numbers print
// without an exponent, so 1e6 reads as 1000000.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
