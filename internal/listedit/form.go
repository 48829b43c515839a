package listedit

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ehr/praxis/internal/platform/apiclient"
)

// Mode is the dialog mode of a draft.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

func (m Mode) String() string {
	if m == ModeUpdate {
		return "update"
	}
	return "create"
}

var (
	validate = validator.New()

	ruleMu       sync.RWMutex
	ruleMessages = map[string]string{}
)

// RegisterRule adds a named string rule usable in Field.Rules. Resource
// packages call it from init.
func RegisterRule(tag, message string, fn func(value string) bool) error {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
	if err != nil {
		return fmt.Errorf("register rule %s: %w", tag, err)
	}
	ruleMu.Lock()
	ruleMessages[tag] = message
	ruleMu.Unlock()
	return nil
}

// kindRules are applied to non-blank values on top of Field.Rules.
var kindRules = map[FieldKind]string{
	KindEmail: "email",
	KindDate:  "datetime=2006-01-02",
	KindTime:  "datetime=15:04",
}

// Form holds the draft of one dialog. It is not safe for concurrent use;
// the Controller serializes access.
type Form struct {
	res   *Resource
	mode  Mode
	draft Record
	open  bool
}

// NewForm creates a closed form for res.
func NewForm(res *Resource) *Form {
	return &Form{res: res}
}

// Open seeds the draft from rec (edit) or from the resource template when
// rec is nil (create).
func (f *Form) Open(rec Record) {
	if rec == nil {
		f.mode = ModeCreate
		f.draft = f.res.Template()
	} else {
		f.mode = ModeUpdate
		f.draft = CloneRecord(rec)
	}
	f.open = true
}

// IsOpen reports whether a draft exists.
func (f *Form) IsOpen() bool { return f.open }

// Mode returns the dialog mode.
func (f *Form) Mode() Mode { return f.mode }

// ID returns the identifier of the record being edited, "" in create mode.
func (f *Form) ID() string {
	if !f.open || f.mode == ModeCreate {
		return ""
	}
	return f.res.RecordID(f.draft)
}

// Draft returns a copy of the current draft.
func (f *Form) Draft() Record {
	return CloneRecord(f.draft)
}

// SetField stores value under name. Strings are coerced to the field kind
// when possible; nothing is validated here.
func (f *Form) SetField(name string, value any) error {
	if !f.open {
		return ErrNoDialog
	}
	if field, ok := f.res.Field(name); ok {
		value = Coerce(field.Kind, value)
	}
	f.draft[name] = value
	return nil
}

// Reset discards the draft.
func (f *Form) Reset() {
	f.draft = nil
	f.open = false
	f.mode = ModeCreate
}

// Payload returns what Submit would send.
func (f *Form) Payload() map[string]any {
	return f.res.Payload(f.draft)
}

// Validate runs the per-field checks declared on the resource.
func (f *Form) Validate() error {
	if !f.open {
		return ErrNoDialog
	}
	return CheckFields(f.res, f.draft)
}

// CheckFields runs required, kind and rule checks for every field of res
// against draft. Read-only fields are skipped.
func CheckFields(res *Resource, draft Record) error {
	var fields []apiclient.FieldError
	for _, field := range res.Fields {
		if field.ReadOnly {
			continue
		}
		if msg := checkField(field, draft[field.Name]); msg != "" {
			fields = append(fields, apiclient.FieldError{Field: field.Name, Message: msg})
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// CheckValue checks one raw input against field and returns the message
// shown next to it, or "".
func CheckValue(field Field, raw string) string {
	return checkField(field, Coerce(field.Kind, raw))
}

func checkField(field Field, value any) string {
	if isBlank(value) {
		if field.Required {
			return "is required"
		}
		return ""
	}

	switch field.Kind {
	case KindNumber:
		n, ok := toNumber(value)
		if !ok {
			return "must be a number"
		}
		value = n
	case KindBool:
		if _, ok := value.(bool); !ok {
			return "must be true or false"
		}
	case KindSelect:
		if !slices.Contains(field.Options, StringValue(value)) {
			return "must be one of " + strings.Join(field.Options, ", ")
		}
	default:
		if _, ok := value.(string); !ok {
			value = StringValue(value)
		}
	}

	rules := joinRules(kindRules[field.Kind], field.Rules)
	if rules == "" {
		return ""
	}
	if err := validate.Var(value, rules); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return ruleMessage(field, verrs[0])
		}
		return "is invalid"
	}
	return ""
}

func joinRules(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}

func ruleMessage(field Field, fe validator.FieldError) string {
	numeric := field.Kind == KindNumber
	switch fe.Tag() {
	case "email":
		return "must be a valid email address"
	case "datetime":
		if field.Kind == KindTime {
			return "must be a time (HH:MM)"
		}
		return "must be a date (YYYY-MM-DD)"
	case "max", "lte":
		if numeric {
			return "must be at most " + fe.Param()
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min", "gte":
		if numeric {
			return "must be at least " + fe.Param()
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "gt":
		return "must be greater than " + fe.Param()
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "alphanum":
		return "must contain only letters and digits"
	case "uppercase":
		return "must be upper case"
	}
	ruleMu.RLock()
	defer ruleMu.RUnlock()
	if msg, ok := ruleMessages[fe.Tag()]; ok {
		return msg
	}
	return "is invalid"
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		n, err := t.Float64()
		return n, err == nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return n, err == nil
	}
	return 0, false
}

// Coerce converts textual input to the JSON type a field kind expects.
// Values that do not parse are returned unchanged so Validate can report
// them.
func Coerce(kind FieldKind, value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	switch kind {
	case KindNumber:
		if strings.TrimSpace(s) == "" {
			return nil
		}
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return n
		}
	case KindBool:
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b
		}
	}
	return value
}
