// Package validation implements schema.Validator on top of the
// santhosh-tekuri JSON Schema engine, translating raw validation output
// into the field-keyed, human-readable messages surfaced to members.
package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/felixgeelhaar/decision-go/domain/schema"
)

// Validator is the JSON Schema backed implementation of schema.Validator.
// Vendor extension keywords (field ordering hints, format tags) pass
// through the compiler untouched: unknown keywords are ignored and format
// assertion stays off, so a "money" format never rejects a schema.
type Validator struct {
	draft *jsonschema.Draft
}

// NewValidator creates a validator using JSON Schema draft-07, the draft
// the form templates are authored against.
func NewValidator() *Validator {
	return &Validator{draft: jsonschema.Draft7}
}

// compile builds a compiled schema from a document.
func (v *Validator) compile(doc schema.Document) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrInvalidSchema, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = v.draft
	if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrInvalidSchema, err)
	}

	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrInvalidSchema, err)
	}
	return compiled, nil
}

// Check verifies that a schema document is well-formed and compilable,
// independent of any data.
func (v *Validator) Check(_ context.Context, doc schema.Document) error {
	_, err := v.compile(doc)
	return err
}

// Validate checks data against the document and returns a field-keyed
// result. The error return is non-nil only when the document itself cannot
// be compiled; data mismatches land in the result.
func (v *Validator) Validate(_ context.Context, doc schema.Document, data map[string]any) (schema.Result, error) {
	compiled, err := v.compile(doc)
	if err != nil {
		return schema.Result{}, err
	}

	payload, err := normalize(data)
	if err != nil {
		return schema.Result{}, fmt.Errorf("normalize data: %w", err)
	}

	if err := compiled.Validate(payload); err != nil {
		verr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return schema.Result{}, fmt.Errorf("validate: %w", err)
		}
		return schema.Result{Valid: false, Errors: humanize(doc, verr)}, nil
	}

	return schema.Result{Valid: true, Errors: map[string]string{}}, nil
}

// ValidateProposal validates proposal data against a proposal template and
// returns a *schema.ValidationError carrying the field-error map on
// mismatch.
func (v *Validator) ValidateProposal(ctx context.Context, doc schema.Document, data map[string]any) error {
	result, err := v.Validate(ctx, doc, data)
	if err != nil {
		return err
	}
	if !result.Valid {
		return &schema.ValidationError{FieldErrors: result.Errors}
	}
	return nil
}

// normalize round-trips data through JSON so the engine only ever sees
// the decoded-JSON type set regardless of how callers built the map.
func normalize(data map[string]any) (any, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

var _ schema.Validator = (*Validator)(nil)
