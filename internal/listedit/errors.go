package listedit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ehr/praxis/internal/platform/apiclient"
)

var (
	// ErrBusy is returned when an operation is started while its own
	// previous request is still in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("controller closed")
	// ErrMissingRouteToken is fatal: the page cannot work without it.
	ErrMissingRouteToken = errors.New("missing route token")

	ErrNoDialog          = errors.New("no dialog open")
	ErrDialogOpen        = errors.New("a dialog is already open")
	ErrNothingToConfirm  = errors.New("no delete awaiting confirmation")
	ErrNoConfirmer       = errors.New("confirmation required")
	ErrReadOnly          = errors.New("resource is read-only")
	ErrUploadUnsupported = errors.New("resource does not accept uploads")
	ErrInvalidPage       = errors.New("invalid page")
	ErrNotFound          = errors.New("record not found")
)

// ValidationError is a client-side check failure. It blocks submit; no
// request is sent.
type ValidationError struct {
	Fields []apiclient.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// UnknownActionError names an action the resource does not define.
type UnknownActionError struct {
	Resource string
	Action   string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("%s has no action %q", e.Resource, e.Action)
}

// FieldErrorsOf returns client or server field errors carried by err.
func FieldErrorsOf(err error) []apiclient.FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return apiclient.FieldErrorsOf(err)
}
