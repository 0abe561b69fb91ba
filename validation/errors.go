// Package validation provides a small aggregate-error type for
// reporting many independent user-input problems from a single pass
// (manifest validation, multiple cyclic-usage reports, and so on),
// in the same style the model and resolver packages use their
// (vendored) validation.ErrorList.
package validation

import (
	"fmt"
	"strings"
)

// ErrorType categorizes a single validation Error.
type ErrorType string

const (
	ErrorTypeInvalid       ErrorType = "Invalid"
	ErrorTypeRequired      ErrorType = "Required"
	ErrorTypeNotFound      ErrorType = "NotFound"
	ErrorTypeForbidden     ErrorType = "Forbidden"
	ErrorTypeInternalError ErrorType = "InternalError"
)

// Error is one field-scoped validation problem.
type Error struct {
	Type     ErrorType
	Field    string
	BadValue interface{}
	Detail   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Type {
	case ErrorTypeRequired:
		return fmt.Sprintf("%s: Required value%s", e.Field, suffix(e.Detail))
	case ErrorTypeNotFound:
		return fmt.Sprintf("%s: Not found%s", e.Field, suffix(e.Detail))
	case ErrorTypeForbidden:
		return fmt.Sprintf("%s: Forbidden%s", e.Field, suffix(e.Detail))
	case ErrorTypeInternalError:
		return fmt.Sprintf("%s: Internal error: %v", e.Field, e.BadValue)
	default:
		return fmt.Sprintf("%s: Invalid value %v%s", e.Field, e.BadValue, suffix(e.Detail))
	}
}

func suffix(detail string) string {
	if detail == "" {
		return ""
	}
	return ": " + detail
}

// Invalid reports that value is not an acceptable value for field.
func Invalid(field string, value interface{}, detail string) *Error {
	return &Error{Type: ErrorTypeInvalid, Field: field, BadValue: value, Detail: detail}
}

// Required reports that field was required but absent.
func Required(field, detail string) *Error {
	return &Error{Type: ErrorTypeRequired, Field: field, Detail: detail}
}

// NotFound reports that a referenced field could not be resolved.
func NotFound(field, detail string) *Error {
	return &Error{Type: ErrorTypeNotFound, Field: field, Detail: detail}
}

// Forbidden reports that field combines values that are mutually
// exclusive.
func Forbidden(field, detail string) *Error {
	return &Error{Type: ErrorTypeForbidden, Field: field, Detail: detail}
}

// InternalError reports a problem that should not be reachable given
// prior validation; cause is wrapped for diagnostics.
func InternalError(field string, cause error) *Error {
	return &Error{Type: ErrorTypeInternalError, Field: field, BadValue: cause}
}

// ErrorList aggregates zero or more Errors and itself implements
// error, so a validation pass can return either a *Error or an
// ErrorList without callers needing to special-case either.
type ErrorList []*Error

// Error implements the error interface, joining every entry.
func (list ErrorList) Error() string {
	msgs := make([]string, 0, len(list))
	for _, e := range list {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// ToAggregate returns list as an error, or nil if list is empty.
func (list ErrorList) ToAggregate() error {
	if len(list) == 0 {
		return nil
	}
	return list
}
