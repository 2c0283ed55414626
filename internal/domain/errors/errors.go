package errors

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalid = errors.New("invalid")

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationError struct {
	Items []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Items) == 0 {
		return "validation failed"
	}

	var b strings.Builder
	b.WriteString("validation failed:\n")
	for _, item := range e.Items {
		b.WriteString(" - ")
		b.WriteString(item.Error())
		b.WriteString("\n")
	}
	return b.String()
}

func (e *ValidationError) Add(field, msg string) {
	e.Items = append(e.Items, FieldError{
		Field:   field,
		Message: msg,
	})
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func (e ValidationError) HasAny() bool {
	return len(e.Items) > 0
}

// Fields returns the messages keyed by field, first message wins.
func (e ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.Items))
	for _, item := range e.Items {
		if _, ok := out[item.Field]; ok {
			continue
		}
		out[item.Field] = item.Message
	}
	return out
}

// APIError is a failed CMS round-trip: a non-2xx status, an error envelope,
// or a transport failure (Status 0, Err set).
type APIError struct {
	Status  int
	Message string
	Details map[string]any
	Err     error
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Error() string {
	if e.Status == 0 {
		return "cms: " + e.Message
	}
	return fmt.Sprintf("cms: status %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err carries an APIError with the given status.
func IsStatus(err error, status int) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status == status
	}
	return false
}
