package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed API call.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindServer
	KindServerValidation
	KindConflict
	KindAuth
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindServerValidation:
		return "server_validation"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	}
	return "unknown"
}

// FieldError is one field-level message reported by the server.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned by every Client call that did not succeed. Message is
// only ever text decoded from a server body; Op names the client-side step
// that failed when there is no server text.
type Error struct {
	Kind        Kind
	Status      int
	Message     string
	Op          string
	FieldErrors []FieldError
	RequestID   string
	Err         error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Op
	}
	if msg == "" {
		if e.Status != 0 {
			msg = fmt.Sprintf("request failed with status %d", e.Status)
		} else {
			msg = "request failed"
		}
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// kindForStatus maps an HTTP status to a Kind. hasFields distinguishes a
// field-level 400 from a plain one.
func kindForStatus(status int, hasFields bool) Kind {
	switch {
	case status == http.StatusBadRequest && hasFields:
		return KindServerValidation
	case status == http.StatusUnprocessableEntity && hasFields:
		return KindServerValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	}
	return KindServer
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsAuth reports whether err is a 401/403 or a missing/expired session.
func IsAuth(err error) bool { return KindOf(err) == KindAuth }

// IsConflict reports whether err is a 409.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool { return KindOf(err) == KindNetwork }

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// FieldErrorsOf returns the server field errors carried by err, if any.
func FieldErrorsOf(err error) []FieldError {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.FieldErrors
	}
	return nil
}

// MessageOf returns the message the server sent with err, or "". Client-side
// failures such as transport errors carry none.
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
