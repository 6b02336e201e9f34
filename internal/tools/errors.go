package tools

import (
	"errors"
	"fmt"
	"strings"
)

// The dispatcher distinguishes two failure classes. Recoverable errors are
// caused by the caller's arguments (a misspelled entity, an unparseable
// value, an ambiguous reference); their Error() text is written for the
// model to read and retry with, and the tool boundary returns it as a
// normal text result. Everything else (an unreachable database, a broken
// schema universe) is fatal and propagates as a plain Go error.

// NotFoundError reports a name that did not resolve, along with the valid
// alternatives the caller can retry with.
type NotFoundError struct {
	What         string   // "entity", "Customer record", ...
	Name         string   // the name or identifier that failed to resolve
	Alternatives []string // valid names, already capped by the caller
	Hint         string   // optional follow-up guidance
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	var sb strings.Builder
	if e.Name == "" {
		sb.WriteString(fmt.Sprintf("No %s was found.", e.What))
	} else {
		sb.WriteString(fmt.Sprintf("%s %q was not found.", capitalize(e.What), e.Name))
	}
	if len(e.Alternatives) > 0 {
		sb.WriteString(fmt.Sprintf(" Valid options: %s.", strings.Join(e.Alternatives, ", ")))
	}
	if e.Hint != "" {
		sb.WriteString(" " + e.Hint)
	}
	return sb.String()
}

// ConversionError reports a value that could not be coerced to the target
// property's type. Key and value are echoed back so the caller can correct
// the offending pair.
type ConversionError struct {
	Key      string
	Value    string
	TypeName string
	Cause    error
}

// Error implements the error interface
func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("Cannot convert %q to type %s for property %q.", e.Value, e.TypeName, e.Key)
	if e.Cause != nil {
		msg += " " + e.Cause.Error() + "."
	}
	return msg
}

func (e *ConversionError) Unwrap() error { return e.Cause }

// ValidationError reports missing or malformed arguments with guidance on
// the required shape.
type ValidationError struct {
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// UnknownKeyError reports a filter or property key that matches neither a
// property nor a to-one relationship of the entity. Every valid member name
// is enumerated so the caller can pick the right one.
type UnknownKeyError struct {
	Entity string
	Key    string
	Valid  []string
}

// Error implements the error interface
func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("%s has no property or relationship named %q. Valid keys: %s.",
		e.Entity, e.Key, strings.Join(e.Valid, ", "))
}

// RelationMatchError reports a relationship value that matched no candidate
// record. Up to candidatesShown display labels of the target entity are
// listed to guide correction.
type RelationMatchError struct {
	Key        string
	Value      string
	Target     string
	Candidates []string // sample of available display labels, may be empty
}

// Error implements the error interface
func (e *RelationMatchError) Error() string {
	msg := fmt.Sprintf("No %s matches %q for %q.", e.Target, e.Value, e.Key)
	if len(e.Candidates) == 0 {
		return msg + fmt.Sprintf(" There are no %s records yet.", e.Target)
	}
	return msg + fmt.Sprintf(" Available: %s.", strings.Join(e.Candidates, ", "))
}

// AmbiguousMatchError reports a textual reference that matched more than one
// record. The matching labels are listed so the caller can narrow the term.
type AmbiguousMatchError struct {
	What    string // "Customer reference", "Order identifier", ...
	Value   string
	Matches []string // labels of the records that matched, capped by the caller
}

// Error implements the error interface
func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%s %q matches more than one record: %s. Use a more specific value.",
		capitalize(e.What), e.Value, strings.Join(e.Matches, ", "))
}

// Recoverable reports whether err is a caller-correctable condition that the
// tool boundary should render as text instead of propagating.
func Recoverable(err error) bool {
	var (
		nf *NotFoundError
		ce *ConversionError
		ve *ValidationError
		uk *UnknownKeyError
		rm *RelationMatchError
		am *AmbiguousMatchError
	)
	return errors.As(err, &nf) ||
		errors.As(err, &ce) ||
		errors.As(err, &ve) ||
		errors.As(err, &uk) ||
		errors.As(err, &rm) ||
		errors.As(err, &am)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
