package schema

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// Result is the outcome of validating a data payload against a document.
type Result struct {
	// Valid reports whether the payload satisfied the document.
	Valid bool

	// Errors maps field paths to human-readable messages. Empty when Valid.
	Errors map[string]string
}

// ValidationError is a structured validation failure carrying the full
// field-error map for programmatic use. Its message concatenates every
// field error so a bare log line still shows the whole picture.
type ValidationError struct {
	// FieldErrors maps field paths to human-readable messages.
	FieldErrors map[string]string
}

// Error implements the error interface. Fields are listed in sorted order
// so the message is deterministic.
func (e *ValidationError) Error() string {
	if len(e.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, field := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.FieldErrors[field])
	}
	return b.String()
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// Validator validates data payloads and schema documents.
// Implementations may be backed by any JSON Schema engine.
type Validator interface {
	// Validate checks data against the document and returns a field-keyed
	// result. It returns a non-nil error only when the document itself
	// cannot be compiled.
	Validate(ctx context.Context, doc Document, data map[string]any) (Result, error)

	// Check verifies that a schema document is well-formed and compilable,
	// independent of any data. Used when an admin saves a new template or
	// settings schema.
	Check(ctx context.Context, doc Document) error

	// ValidateProposal validates proposal data against a proposal template
	// and returns a *ValidationError on mismatch, nil on success.
	ValidateProposal(ctx context.Context, doc Document, data map[string]any) error
}

// ErrInvalidSchema is returned when a schema document cannot be compiled.
var ErrInvalidSchema = errors.New("invalid schema document")
