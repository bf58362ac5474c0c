package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestApp_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"version"})
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "decisiond version") {
		t.Errorf("version output missing 'decisiond version', got: %s", output)
	}
}

func TestApp_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"--help"})
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "decision process") {
		t.Errorf("help output missing description, got: %s", output)
	}
	if !strings.Contains(output, "run") {
		t.Errorf("help output missing 'run' command, got: %s", output)
	}
	if !strings.Contains(output, "reconcile") {
		t.Errorf("help output missing 'reconcile' command, got: %s", output)
	}
	if !strings.Contains(output, "submit") {
		t.Errorf("help output missing 'submit' command, got: %s", output)
	}
}

func TestApp_CheckSchema(t *testing.T) {
	content := `{
  "type": "object",
  "properties": {
    "title": {"type": "string", "format": "short-text"},
    "budget": {"type": "number", "format": "money"}
  },
  "required": ["title"]
}`
	tmpDir := t.TempDir()
	schemaPath := filepath.Join(tmpDir, "schema.json")
	if err := os.WriteFile(schemaPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write schema file: %v", err)
	}

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"check-schema", schemaPath})
	if err != nil {
		t.Fatalf("check-schema command failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "Schema is valid") {
		t.Errorf("check-schema output missing 'Schema is valid', got: %s", output)
	}
	if !strings.Contains(output, "title") {
		t.Errorf("check-schema output missing property listing, got: %s", output)
	}
}

func TestApp_CheckSchemaInvalid(t *testing.T) {
	content := `{"type": "object", "properties": {"title": {"type": 42}}}`
	tmpDir := t.TempDir()
	schemaPath := filepath.Join(tmpDir, "schema.json")
	if err := os.WriteFile(schemaPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write schema file: %v", err)
	}

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"check-schema", schemaPath})
	if err == nil {
		t.Fatal("check-schema should fail for a malformed schema")
	}
}

func TestApp_RunOnce(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	// Default config uses the in-memory backend, so a single batch runs
	// against an empty store.
	err := app.ExecuteWithArgs(context.Background(), []string{"run", "--once"})
	if err != nil {
		t.Fatalf("run --once failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "processed=0") {
		t.Errorf("run output missing empty batch summary, got: %s", output)
	}
}

func TestApp_Reconcile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"reconcile"})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
}

func TestApp_SubmitUnknownProposal(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"submit", "missing"})
	if err == nil {
		t.Fatal("submit should fail for an unknown proposal")
	}
}
