// Package assembly reconstructs flat, validable proposal data from the
// per-field rich-text fragments stored in an external collaborative
// document.
package assembly

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/decision-go/domain/collab"
	"github.com/felixgeelhaar/decision-go/domain/schema"
)

// Text-style format tags whose fragments pass through as plain strings.
const (
	FormatShortText = "short-text"
	FormatLongText  = "long-text"
	FormatDropdown  = "dropdown"
	FormatMoney     = "money"
)

// moneyFragment is the structured shape money fields are stored in.
type moneyFragment struct {
	Amount   *float64 `json:"amount"`
	Currency string   `json:"currency"`
}

// Assembler builds flat data objects from fragment text, keyed by each
// template field's declared format tag. Assembly is best-effort and never
// fails on malformed fragment text; malformed content surfaces later as a
// schema validation error.
type Assembler struct {
	docs collab.DocumentStore
}

// NewAssembler creates an assembler reading fragments from docs.
func NewAssembler(docs collab.DocumentStore) *Assembler {
	return &Assembler{docs: docs}
}

// AssembleFromDocument fetches the template's fields from the document and
// assembles them. Fetch failure is the one error path: content that cannot
// be retrieved cannot be verified, so the caller must fail closed.
func (a *Assembler) AssembleFromDocument(ctx context.Context, docID string, template schema.Document) (map[string]any, error) {
	props := template.Properties()
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}

	fragments, err := a.docs.FetchFragments(ctx, docID, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch fragments for document %s: %w", docID, err)
	}
	return Assemble(template, fragments), nil
}

// Assemble builds a flat data object from already-fetched fragments.
func Assemble(template schema.Document, fragments map[string]string) map[string]any {
	data := make(map[string]any, len(fragments))

	for key := range template.Properties() {
		text, ok := fragments[key]
		if !ok || text == "" {
			// Nothing written yet; a required field surfaces as a
			// required error, not a type error.
			continue
		}

		switch template.Format(key) {
		case FormatShortText, FormatLongText, FormatDropdown:
			data[key] = text
		case FormatMoney:
			data[key] = assembleMoney(text, template.FieldType(key))
		default:
			data[key] = assembleStructured(text)
		}
	}
	return data
}

// assembleMoney parses a money fragment. Legacy numeric fields keep just
// the amount; otherwise the full structured value is kept. Unparseable
// text falls back to the raw string.
func assembleMoney(text, fieldType string) any {
	var frag moneyFragment
	if err := json.Unmarshal([]byte(text), &frag); err != nil || frag.Amount == nil {
		return text
	}
	if fieldType == "number" || fieldType == "integer" {
		return *frag.Amount
	}
	return map[string]any{"amount": *frag.Amount, "currency": frag.Currency}
}

// assembleStructured tries a structured parse with raw-text fallback.
func assembleStructured(text string) any {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return text
	}
	return value
}
