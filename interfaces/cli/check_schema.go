package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/decision-go/domain/schema"
	"github.com/felixgeelhaar/decision-go/infrastructure/validation"
)

// newCheckSchemaCmd creates the check-schema command.
func (a *App) newCheckSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-schema <file>",
		Short: "Check that a schema document compiles",
		Long: `Check that a proposal or settings schema document is well-formed and
compilable, independent of any data. Vendor extension keywords such as
presentation hints and field format tags are accepted.

Examples:
  decisiond check-schema proposal-schema.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.checkSchema(cmd, args[0])
		},
	}
	return cmd
}

func (a *App) checkSchema(cmd *cobra.Command, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema file: %w", err)
	}

	doc, err := schema.ParseDocument(raw)
	if err != nil {
		return fmt.Errorf("parse schema file: %w", err)
	}

	validator := validation.NewValidator()
	if err := validator.Check(cmd.Context(), doc); err != nil {
		return fmt.Errorf("schema check failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "✓ Schema is valid\n")
	props := doc.Properties()
	fmt.Fprintf(a.stdout, "  Properties: %d\n", len(props))
	for key := range props {
		line := fmt.Sprintf("    - %s (%s", key, doc.FieldType(key))
		if format := doc.Format(key); format != "" {
			line += ", " + format
		}
		fmt.Fprintf(a.stdout, "%s)\n", line)
	}
	if required := doc.Required(); len(required) > 0 {
		fmt.Fprintf(a.stdout, "  Required: %v\n", required)
	}
	return nil
}
