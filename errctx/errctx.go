// Package errctx provides a context-carrying error value, used where
// threading a stack of breadcrumb scopes (file path, URL, package id,
// command vector) through a deeply nested call chain would otherwise
// be needed. Instead of a scope stack, crucible attaches an
// ordered list of fields to the error value itself as it propagates.
package errctx

import "strings"

// Field is one breadcrumb attached to an Error: a named piece of
// context such as "file", "url", "package", or "command".
type Field struct {
	Key   string
	Value string
}

// Error wraps a cause with an ordered list of contextual fields.
// Fields are appended as the error propagates outward, so the
// innermost context appears first.
type Error struct {
	Cause  error
	Fields []Field
}

// New wraps cause in an Error with no fields yet attached.
func New(cause error) *Error {
	if ctxErr, ok := cause.(*Error); ok {
		return ctxErr
	}
	return &Error{Cause: cause}
}

// With returns a new Error with an additional field appended,
// leaving the receiver unmodified.
func (e *Error) With(key, value string) *Error {
	fields := make([]Field, len(e.Fields), len(e.Fields)+1)
	copy(fields, e.Fields)
	fields = append(fields, Field{Key: key, Value: value})
	return &Error{Cause: e.Cause, Fields: fields}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Cause.Error())
	for _, f := range e.Fields {
		b.WriteString(" [")
		b.WriteString(f.Key)
		b.WriteString("=")
		b.WriteString(f.Value)
		b.WriteString("]")
	}
	return b.String()
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Lookup returns the value of the first field with the given key,
// searching innermost (earliest-appended) first.
func (e *Error) Lookup(key string) (string, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// With attaches a field to err, wrapping it in an *Error first if it
// is not one already.
func With(err error, key, value string) *Error {
	if err == nil {
		return nil
	}
	return New(err).With(key, value)
}
