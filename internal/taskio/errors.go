package taskio

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error checking via errors.Is(), per
// spec.md 7's input-error taxonomy. Grounded on the teacher-pack's graph
// package layered error shape (samgonzalez27-script-weaver/internal/
// graph/errors.go), adapted from graph-document errors to task-document
// errors.
var (
	// ErrParse indicates malformed JSON.
	ErrParse = errors.New("parse error")
	// ErrSchema indicates a missing or mistyped field.
	ErrSchema = errors.New("schema error")
	// ErrSemantic indicates a well-formed document whose content is
	// inconsistent (unknown or out-of-range variable/value, incomplete
	// initial state, unsupported schema version, and so on).
	ErrSemantic = errors.New("semantic error")
)

// ParseError wraps ErrParse for errors.Is() compatibility.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Msg == "" {
		return ErrParse.Error()
	}
	return fmt.Sprintf("%s: %s", ErrParse.Error(), e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// SchemaError wraps ErrSchema for errors.Is() compatibility.
type SchemaError struct {
	Field string
	Msg   string
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", ErrSchema.Error(), e.Field, e.Msg)
	}
	return fmt.Sprintf("%s: %s", ErrSchema.Error(), e.Msg)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// SemanticError wraps ErrSemantic for errors.Is() compatibility.
type SemanticError struct {
	Msg string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSemantic.Error(), e.Msg)
}

func (e *SemanticError) Unwrap() error { return ErrSemantic }
