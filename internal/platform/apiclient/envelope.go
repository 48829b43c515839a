package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ehr/praxis/pkg/pagination"
)

// envelope covers every response shape the practice API has been seen to
// return. Decoding happens here once so callers only ever see records and
// pagination.Meta.
type envelope struct {
	Success    *bool            `json:"success"`
	Data       json.RawMessage  `json:"data"`
	Items      json.RawMessage  `json:"items"`
	Message    string           `json:"message"`
	Error      string           `json:"error"`
	Errors     json.RawMessage  `json:"errors"`
	Pagination *pagination.Meta `json:"pagination"`
	Total      *int             `json:"total"`
	Page       *int             `json:"page"`
	Limit      *int             `json:"limit"`
	Offset     *int             `json:"offset"`
}

func (e *envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// meta returns the pagination carried by the envelope itself, either as a
// nested block or as top-level total/page/limit/offset fields.
func (e *envelope) meta() (pagination.Meta, bool) {
	if e.Pagination != nil {
		return *e.Pagination, true
	}
	if e.Total == nil {
		return pagination.Meta{}, false
	}
	m := pagination.Meta{Total: *e.Total}
	if e.Limit != nil {
		m.Limit = *e.Limit
	}
	switch {
	case e.Page != nil:
		m.Page = *e.Page
	case e.Offset != nil && m.Limit > 0:
		m.Page = *e.Offset/m.Limit + 1
	}
	return m, true
}

func isArray(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func isNull(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// decodeList normalizes a list response into records and pagination.
func decodeList(body []byte, q pagination.Query) ([]map[string]any, pagination.Meta, error) {
	if isArray(body) {
		items, err := decodeItems(body)
		if err != nil {
			return nil, pagination.Meta{}, err
		}
		return items, derivedMeta(items, q), nil
	}
	if !isObject(body) {
		return nil, pagination.Meta{}, fmt.Errorf("unrecognized list response")
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("decode envelope: %w", err)
	}

	raw := env.Data
	if isNull(raw) {
		raw = env.Items
	}
	if isArray(raw) {
		items, err := decodeItems(raw)
		if err != nil {
			return nil, pagination.Meta{}, err
		}
		if m, ok := env.meta(); ok {
			return items, fillMeta(m, q), nil
		}
		return items, derivedMeta(items, q), nil
	}
	if isObject(raw) {
		var inner envelope
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, pagination.Meta{}, fmt.Errorf("decode list data: %w", err)
		}
		list := inner.Data
		if isNull(list) {
			list = inner.Items
		}
		if !isArray(list) {
			return nil, pagination.Meta{}, fmt.Errorf("list data carries no array")
		}
		items, err := decodeItems(list)
		if err != nil {
			return nil, pagination.Meta{}, err
		}
		if m, ok := inner.meta(); ok {
			return items, fillMeta(m, q), nil
		}
		if m, ok := env.meta(); ok {
			return items, fillMeta(m, q), nil
		}
		return items, derivedMeta(items, q), nil
	}
	if isNull(raw) && env.Success != nil {
		return []map[string]any{}, derivedMeta(nil, q), nil
	}
	return nil, pagination.Meta{}, fmt.Errorf("unrecognized list response")
}

func decodeItems(raw []byte) ([]map[string]any, error) {
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if items == nil {
		items = []map[string]any{}
	}
	return items, nil
}

// fillMeta completes a server meta with request values the server left out.
// Total is never touched.
func fillMeta(m pagination.Meta, q pagination.Query) pagination.Meta {
	if m.Page == 0 {
		m.Page = q.Page
	}
	if m.Limit == 0 {
		m.Limit = q.Limit
	}
	return m
}

func derivedMeta(items []map[string]any, q pagination.Query) pagination.Meta {
	return pagination.Meta{Total: len(items), Page: q.Page, Limit: q.Limit, Derived: true}
}

// decodeOne normalizes a single-record response. An empty body, or data that
// is not an object (an id, a flag), yields no record.
func decodeOne(body []byte) (map[string]any, error) {
	if isNull(body) {
		return nil, nil
	}
	if !isObject(body) {
		if !json.Valid(body) {
			return nil, fmt.Errorf("unrecognized record response")
		}
		return nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	_, hasSuccess := fields["success"]
	data, hasData := fields["data"]
	if hasSuccess || (hasData && onlyEnvelopeKeys(fields)) {
		if !isObject(data) {
			return nil, nil
		}
		var rec map[string]any
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode record data: %w", err)
		}
		return rec, nil
	}

	var rec map[string]any
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

func onlyEnvelopeKeys(fields map[string]json.RawMessage) bool {
	for k := range fields {
		switch k {
		case "data", "message", "success":
		default:
			return false
		}
	}
	return true
}

// decodeFailure extracts the message and field errors of an error body.
// ok is false when the body is not JSON.
func decodeFailure(body []byte) (env envelope, fields []FieldError, ok bool) {
	if !isObject(body) {
		return envelope{}, nil, false
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, nil, false
	}
	return env, decodeFieldErrors(env.Errors), true
}

// decodeFieldErrors accepts [{field,message}], [{path,msg}], ["text"] and
// {"field":"message"}.
func decodeFieldErrors(raw json.RawMessage) []FieldError {
	if isNull(raw) {
		return nil
	}
	if isArray(raw) {
		var objs []map[string]any
		if err := json.Unmarshal(raw, &objs); err == nil {
			out := make([]FieldError, 0, len(objs))
			for _, o := range objs {
				out = append(out, FieldError{
					Field:   firstString(o, "field", "path", "param", "name"),
					Message: firstString(o, "message", "msg", "error"),
				})
			}
			return out
		}
		var texts []string
		if err := json.Unmarshal(raw, &texts); err == nil {
			out := make([]FieldError, 0, len(texts))
			for _, t := range texts {
				out = append(out, FieldError{Message: t})
			}
			return out
		}
		return nil
	}
	if isObject(raw) {
		var byField map[string]string
		if err := json.Unmarshal(raw, &byField); err != nil {
			return nil
		}
		keys := make([]string, 0, len(byField))
		for k := range byField {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]FieldError, 0, len(keys))
		for _, k := range keys {
			out = append(out, FieldError{Field: k, Message: byField[k]})
		}
		return out
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
