package main

import (
	"fmt"
	"strings"
)

// parseAssignments turns ["name=Lab", "price=12"] into a map. Keys must be
// non-empty; values may be empty to clear a field.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("field %q given twice", key)
		}
		out[key] = value
	}
	return out, nil
}

// checkFieldNames rejects assignments to fields the resource does not
// declare or that the server owns.
func checkFieldNames(fields map[string]string, known func(string) (readOnly bool, ok bool)) error {
	for name := range fields {
		ro, ok := known(name)
		if !ok {
			return fmt.Errorf("unknown field %q", name)
		}
		if ro {
			return fmt.Errorf("field %q is read-only", name)
		}
	}
	return nil
}
