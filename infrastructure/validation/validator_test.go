package validation

import (
	"context"
	"strings"
	"testing"

	"github.com/felixgeelhaar/decision-go/domain/schema"
)

func proposalSchema() schema.Document {
	return schema.Document{
		"type": "object",
		"properties": map[string]any{
			"title":       map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"budget":      map[string]any{"type": "number"},
		},
		"required": []any{"title", "description", "budget"},
	}
}

func TestValidateRequiredPrecedence(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	result, err := v.Validate(context.Background(), proposalSchema(), map[string]any{
		"title":       "x",
		"description": "y",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if result.Valid {
		t.Fatal("result should be invalid")
	}
	if got := result.Errors["budget"]; got != "Budget is required" {
		t.Errorf("errors[budget] = %q, want %q", got, "Budget is required")
	}
	if strings.Contains(result.Errors["budget"], "must be a number") {
		t.Error("a missing field must not surface a type error")
	}
}

func TestValidateTypeMismatch(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	result, err := v.Validate(context.Background(), proposalSchema(), map[string]any{
		"title":       "x",
		"description": "y",
		"budget":      "not-a-number",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if result.Valid {
		t.Fatal("result should be invalid")
	}
	if got := result.Errors["budget"]; got != "Budget must be a number" {
		t.Errorf("errors[budget] = %q, want %q", got, "Budget must be a number")
	}
}

func TestValidateNumericLimitInterpolation(t *testing.T) {
	t.Parallel()

	doc := schema.Document{
		"type": "object",
		"properties": map[string]any{
			"budget": map[string]any{"type": "number", "maximum": float64(5000)},
		},
	}

	v := NewValidator()
	result, err := v.Validate(context.Background(), doc, map[string]any{"budget": float64(9000)})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if got := result.Errors["budget"]; got != "Budget cannot exceed 5,000" {
		t.Errorf("errors[budget] = %q, want %q", got, "Budget cannot exceed 5,000")
	}
}

func TestValidateTitlePreferred(t *testing.T) {
	t.Parallel()

	doc := schema.Document{
		"type": "object",
		"properties": map[string]any{
			"budget": map[string]any{"type": "number", "title": "Requested budget"},
		},
		"required": []any{"budget"},
	}

	v := NewValidator()
	result, err := v.Validate(context.Background(), doc, map[string]any{})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if got := result.Errors["budget"]; got != "Requested budget is required" {
		t.Errorf("errors[budget] = %q, want %q", got, "Requested budget is required")
	}
}

func TestValidateEnumListsAllowedValues(t *testing.T) {
	t.Parallel()

	doc := schema.Document{
		"type": "object",
		"properties": map[string]any{
			"category": map[string]any{
				"type": "string",
				"enum": []any{"culture", "sport", "education"},
			},
		},
	}

	v := NewValidator()
	result, err := v.Validate(context.Background(), doc, map[string]any{"category": "other"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	want := "Category must be one of: culture, sport, education"
	if got := result.Errors["category"]; got != want {
		t.Errorf("errors[category] = %q, want %q", got, want)
	}
}

func TestValidateAcceptsVendorExtensions(t *testing.T) {
	t.Parallel()

	doc := schema.Document{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":       "string",
				"format":     "short-text",
				"x-order":    float64(1),
				"x-currency": "EUR",
			},
		},
		"presentation": map[string]any{"layout": "stacked"},
	}

	v := NewValidator()
	result, err := v.Validate(context.Background(), doc, map[string]any{"title": "Hello"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !result.Valid {
		t.Errorf("result should be valid, got errors %v", result.Errors)
	}
}

func TestValidateValidData(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	result, err := v.Validate(context.Background(), proposalSchema(), map[string]any{
		"title":       "x",
		"description": "y",
		"budget":      float64(100),
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !result.Valid {
		t.Errorf("result should be valid, got errors %v", result.Errors)
	}
	if len(result.Errors) != 0 {
		t.Errorf("errors should be empty, got %v", result.Errors)
	}
}

func TestValidateProposal(t *testing.T) {
	t.Parallel()

	v := NewValidator()

	t.Run("valid data returns nil", func(t *testing.T) {
		t.Parallel()

		err := v.ValidateProposal(context.Background(), proposalSchema(), map[string]any{
			"title":       "x",
			"description": "y",
			"budget":      float64(1),
		})
		if err != nil {
			t.Errorf("ValidateProposal() = %v, want nil", err)
		}
	})

	t.Run("invalid data returns field errors", func(t *testing.T) {
		t.Parallel()

		err := v.ValidateProposal(context.Background(), proposalSchema(), map[string]any{})
		verr, ok := schema.AsValidationError(err)
		if !ok {
			t.Fatalf("ValidateProposal() = %v, want *schema.ValidationError", err)
		}
		if len(verr.FieldErrors) != 3 {
			t.Errorf("FieldErrors = %v, want 3 entries", verr.FieldErrors)
		}
		for _, field := range []string{"title", "description", "budget"} {
			if _, ok := verr.FieldErrors[field]; !ok {
				t.Errorf("FieldErrors missing %q", field)
			}
		}
	})
}

func TestCheck(t *testing.T) {
	t.Parallel()

	v := NewValidator()

	t.Run("well-formed schema", func(t *testing.T) {
		t.Parallel()

		if err := v.Check(context.Background(), proposalSchema()); err != nil {
			t.Errorf("Check() = %v, want nil", err)
		}
	})

	t.Run("malformed schema", func(t *testing.T) {
		t.Parallel()

		doc := schema.Document{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{"type": float64(12)},
			},
		}
		err := v.Check(context.Background(), doc)
		if err == nil {
			t.Fatal("Check() should reject a schema with a numeric type keyword")
		}
	})
}
