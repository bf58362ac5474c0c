package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/felixgeelhaar/decision-go/domain/schema"
)

// Keyword priorities. Lower wins when a field collects several errors:
// a missing field's type error is meaningless, so required always
// suppresses everything else for that field.
const (
	prioRequired = iota
	prioType
	prioLimit
	prioEnum
	prioOther
)

var quotedName = regexp.MustCompile(`'([^']+)'`)

var englishPrinter = message.NewPrinter(language.English)

type fieldError struct {
	message  string
	priority int
}

// humanize flattens the engine's cause tree into a field -> message map,
// applying the required-over-type precedence per field.
func humanize(doc schema.Document, verr *jsonschema.ValidationError) map[string]string {
	collected := map[string]fieldError{}

	for _, cause := range leaves(verr) {
		keyword := lastSegment(cause.KeywordLocation)

		if keyword == "required" {
			// The engine reports the object location; the field names
			// live in the message as quoted identifiers.
			for _, match := range quotedName.FindAllStringSubmatch(cause.Message, -1) {
				field := joinPath(instancePath(cause.InstanceLocation), match[1])
				record(collected, field, fieldError{
					message:  fmt.Sprintf("%s is required", displayName(doc, field)),
					priority: prioRequired,
				})
			}
			continue
		}

		field := strings.Join(instancePath(cause.InstanceLocation), ".")
		if field == "" {
			// Root-level failure with no field to attach to.
			continue
		}
		record(collected, field, messageFor(doc, field, keyword, cause))
	}

	errors := make(map[string]string, len(collected))
	for field, fe := range collected {
		errors[field] = fe.message
	}
	return errors
}

func record(collected map[string]fieldError, field string, fe fieldError) {
	if existing, ok := collected[field]; ok && existing.priority <= fe.priority {
		return
	}
	collected[field] = fe
}

// messageFor builds the human-readable message for one failing keyword,
// reading limits and allowed values back out of the schema document so
// messages interpolate the configured values.
func messageFor(doc schema.Document, field, keyword string, cause *jsonschema.ValidationError) fieldError {
	name := displayName(doc, field)
	prop, _ := doc.Property(lastField(field))

	switch keyword {
	case "type":
		typ := fieldTypeString(prop)
		if typ == "" {
			typ = "valid value"
		}
		return fieldError{fmt.Sprintf("%s must be %s", name, withArticle(typ)), prioType}
	case "maximum", "exclusiveMaximum":
		return fieldError{fmt.Sprintf("%s cannot exceed %s", name, formatLimit(prop[keyword])), prioLimit}
	case "minimum", "exclusiveMinimum":
		return fieldError{fmt.Sprintf("%s cannot be less than %s", name, formatLimit(prop[keyword])), prioLimit}
	case "maxLength":
		return fieldError{fmt.Sprintf("%s must be at most %s characters", name, formatLimit(prop[keyword])), prioLimit}
	case "minLength":
		return fieldError{fmt.Sprintf("%s must be at least %s characters", name, formatLimit(prop[keyword])), prioLimit}
	case "maxItems":
		return fieldError{fmt.Sprintf("%s must have at most %s items", name, formatLimit(prop[keyword])), prioLimit}
	case "minItems":
		return fieldError{fmt.Sprintf("%s must have at least %s items", name, formatLimit(prop[keyword])), prioLimit}
	case "enum", "oneOf":
		values := allowedValues(prop)
		if len(values) > 0 {
			return fieldError{fmt.Sprintf("%s must be one of: %s", name, strings.Join(values, ", ")), prioEnum}
		}
		return fieldError{fmt.Sprintf("%s is not an allowed value", name), prioEnum}
	default:
		return fieldError{fmt.Sprintf("%s is invalid", name), prioOther}
	}
}

// leaves collects the leaf causes of a validation error tree.
func leaves(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		out = append(out, leaves(cause)...)
	}
	return out
}

// displayName prefers the schema's declared title for the property and
// falls back to capitalizing the raw key.
func displayName(doc schema.Document, field string) string {
	key := lastField(field)
	if title := doc.Title(key); title != "" {
		return title
	}
	return capitalize(key)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func withArticle(typ string) string {
	switch typ {
	case "integer", "object", "array":
		return "an " + typ
	default:
		return "a " + typ
	}
}

// formatLimit renders a numeric limit with English grouping ("5,000").
func formatLimit(v any) string {
	switch n := v.(type) {
	case float64, float32, int, int64:
		return englishPrinter.Sprintf("%v", number.Decimal(n))
	case nil:
		return "the limit"
	default:
		return fmt.Sprintf("%v", n)
	}
}

// allowedValues lists a property's enum values, or the const values of its
// oneOf branches.
func allowedValues(prop schema.Document) []string {
	var out []string
	if raw, ok := prop["enum"].([]any); ok {
		for _, v := range raw {
			out = append(out, fmt.Sprintf("%v", v))
		}
		return out
	}
	if branches, ok := prop["oneOf"].([]any); ok {
		for _, b := range branches {
			branch, ok := b.(map[string]any)
			if !ok {
				continue
			}
			if c, ok := branch["const"]; ok {
				out = append(out, fmt.Sprintf("%v", c))
			}
		}
	}
	return out
}

// fieldTypeString reads a property's declared type, tolerating the
// array form ("type": ["number", "null"]).
func fieldTypeString(prop schema.Document) string {
	switch t := prop["type"].(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// instancePath splits a JSON pointer instance location into path segments.
func instancePath(pointer string) []string {
	if pointer == "" || pointer == "/" {
		return nil
	}
	raw := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.ReplaceAll(s, "~1", "/")
		s = strings.ReplaceAll(s, "~0", "~")
		segs = append(segs, s)
	}
	return segs
}

func joinPath(parent []string, field string) string {
	if len(parent) == 0 {
		return field
	}
	return strings.Join(parent, ".") + "." + field
}

func lastField(field string) string {
	if i := strings.LastIndex(field, "."); i >= 0 {
		return field[i+1:]
	}
	return field
}

func lastSegment(pointer string) string {
	if i := strings.LastIndex(pointer, "/"); i >= 0 {
		return pointer[i+1:]
	}
	return pointer
}
