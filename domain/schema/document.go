// Package schema provides the loosely-typed schema documents used to
// configure proposal templates and phase settings, together with the
// validation vocabulary shared by the validator implementation.
package schema

import "encoding/json"

// PresentationKey is the property key reserved for presentation-only
// configuration. It is stripped before settings validation because its
// contents describe rendering, not data.
const PresentationKey = "presentation"

// Vendor extension keywords tolerated in schema documents. They carry
// rendering hints and are never part of data validation.
const (
	FormatKeyword = "format"
	OrderKeyword  = "x-order"
)

// Document is a JSON-Schema-shaped configuration value. Documents arrive
// from admin-edited templates and are validated once at the boundary
// (Validator.Check); internally they are treated as opaque, pre-validated
// structures.
type Document map[string]any

// ParseDocument decodes a raw JSON schema document.
func ParseDocument(raw []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}

// IsZero reports whether the document is absent or empty.
func (d Document) IsZero() bool {
	return len(d) == 0
}

// Properties returns the document's property map, keyed by field name.
func (d Document) Properties() map[string]Document {
	raw, ok := d["properties"].(map[string]any)
	if !ok {
		return nil
	}
	props := make(map[string]Document, len(raw))
	for key, value := range raw {
		if prop, ok := value.(map[string]any); ok {
			props[key] = Document(prop)
		}
	}
	return props
}

// Property returns the sub-schema for a single field.
func (d Document) Property(key string) (Document, bool) {
	prop, ok := d.Properties()[key]
	return prop, ok
}

// Required returns the document's required field names.
func (d Document) Required() []string {
	raw, ok := d["required"].([]any)
	if !ok {
		return nil
	}
	required := make([]string, 0, len(raw))
	for _, value := range raw {
		if name, ok := value.(string); ok {
			required = append(required, name)
		}
	}
	return required
}

// Title returns the declared title for a field, or "" when absent.
func (d Document) Title(key string) string {
	prop, ok := d.Property(key)
	if !ok {
		return ""
	}
	title, _ := prop["title"].(string)
	return title
}

// Format returns the declared format tag for a field, or "" when absent.
func (d Document) Format(key string) string {
	prop, ok := d.Property(key)
	if !ok {
		return ""
	}
	format, _ := prop[FormatKeyword].(string)
	return format
}

// FieldType returns the declared JSON type for a field, or "" when absent.
// Both the single-type form ("number") and the array form
// (["number", "null"]) are recognized; for arrays the first non-null
// type wins.
func (d Document) FieldType(key string) string {
	prop, ok := d.Property(key)
	if !ok {
		return ""
	}
	switch typ := prop["type"].(type) {
	case string:
		return typ
	case []any:
		for _, entry := range typ {
			if s, ok := entry.(string); ok && s != "null" {
				return s
			}
		}
	}
	return ""
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneMap(map[string]any(d)))
}

// WithoutPresentation returns a copy of the document with the
// presentation-only sub-schema removed from both properties and the
// required list. Settings data never carries presentation values, so
// validating against the full document would reject valid settings.
func (d Document) WithoutPresentation() Document {
	if d == nil {
		return nil
	}
	stripped := d.Clone()

	if props, ok := stripped["properties"].(map[string]any); ok {
		delete(props, PresentationKey)
	}
	if raw, ok := stripped["required"].([]any); ok {
		required := make([]any, 0, len(raw))
		for _, value := range raw {
			if name, ok := value.(string); ok && name == PresentationKey {
				continue
			}
			required = append(required, value)
		}
		stripped["required"] = required
	}
	return stripped
}

func cloneMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = cloneValue(value)
	}
	return dst
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		cloned := make([]any, len(v))
		for i, item := range v {
			cloned[i] = cloneValue(item)
		}
		return cloned
	default:
		return v
	}
}
