package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Storage.Driver = %q, want memory", cfg.Storage.Driver)
	}
	if cfg.Monitor.IntervalSeconds != 60 {
		t.Errorf("Monitor.IntervalSeconds = %d, want 60", cfg.Monitor.IntervalSeconds)
	}
	if cfg.Monitor.Concurrency != 4 {
		t.Errorf("Monitor.Concurrency = %d, want 4", cfg.Monitor.Concurrency)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadString(t *testing.T) {
	t.Parallel()

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		cfg, err := NewLoader().LoadString(`
storage:
  driver: sqlite
  dsn: /var/lib/decisiond/data.db
monitor:
  intervalSeconds: 30
`, FormatYAML)
		if err != nil {
			t.Fatalf("LoadString() error = %v", err)
		}

		if cfg.Storage.Driver != "sqlite" {
			t.Errorf("Storage.Driver = %q, want sqlite", cfg.Storage.Driver)
		}
		if cfg.Monitor.IntervalSeconds != 30 {
			t.Errorf("Monitor.IntervalSeconds = %d, want 30", cfg.Monitor.IntervalSeconds)
		}
	})

	t.Run("absent fields keep defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := NewLoader().LoadString(`
logging:
  level: debug
`, FormatYAML)
		if err != nil {
			t.Fatalf("LoadString() error = %v", err)
		}

		if cfg.Logging.Level != "debug" {
			t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
		}
		if cfg.Monitor.BatchSize != 100 {
			t.Errorf("Monitor.BatchSize = %d, want default 100", cfg.Monitor.BatchSize)
		}
		if cfg.Storage.Driver != "memory" {
			t.Errorf("Storage.Driver = %q, want default memory", cfg.Storage.Driver)
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		cfg, err := NewLoader().LoadString(
			`{"storage":{"driver":"postgres","dsn":"postgres://localhost/decisions"}}`,
			FormatJSON,
		)
		if err != nil {
			t.Fatalf("LoadString() error = %v", err)
		}
		if cfg.Storage.Driver != "postgres" {
			t.Errorf("Storage.Driver = %q, want postgres", cfg.Storage.Driver)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		_, err := NewLoader().LoadString("storage: [unclosed", FormatYAML)
		if !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("LoadString() = %v, want ErrInvalidFormat", err)
		}
	})
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{
			name: "db driver without dsn",
			content: `
storage:
  driver: postgres
`,
		},
		{
			name: "unknown driver",
			content: `
storage:
  driver: cassandra
`,
		},
		{
			name: "non-positive interval",
			content: `
monitor:
  intervalSeconds: 0
`,
		},
		{
			name: "unknown logging format",
			content: `
logging:
  format: xml
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewLoader().LoadString(tt.content, FormatYAML)
			if !errors.Is(err, ErrValidationFailed) {
				t.Errorf("LoadString() = %v, want ErrValidationFailed", err)
			}
		})
	}

	t.Run("validation can be disabled", func(t *testing.T) {
		t.Parallel()

		loader := NewLoaderWithOptions(WithValidation(false))
		cfg, err := loader.LoadString("storage:\n  driver: postgres\n", FormatYAML)
		if err != nil {
			t.Fatalf("LoadString() error = %v", err)
		}
		if cfg.Storage.Driver != "postgres" {
			t.Errorf("Storage.Driver = %q, want postgres", cfg.Storage.Driver)
		}
	})
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("DECISIOND_TEST_DSN", "/tmp/decisions.db")

	t.Run("expands set variables", func(t *testing.T) {
		cfg, err := NewLoader().LoadString(`
storage:
  driver: sqlite
  dsn: ${DECISIOND_TEST_DSN}
`, FormatYAML)
		if err != nil {
			t.Fatalf("LoadString() error = %v", err)
		}
		if cfg.Storage.DSN != "/tmp/decisions.db" {
			t.Errorf("Storage.DSN = %q, want expanded value", cfg.Storage.DSN)
		}
	})

	t.Run("default value for unset variable", func(t *testing.T) {
		cfg, err := NewLoader().LoadString(`
storage:
  driver: sqlite
  dsn: ${DECISIOND_TEST_UNSET:-/var/lib/fallback.db}
`, FormatYAML)
		if err != nil {
			t.Fatalf("LoadString() error = %v", err)
		}
		if cfg.Storage.DSN != "/var/lib/fallback.db" {
			t.Errorf("Storage.DSN = %q, want fallback", cfg.Storage.DSN)
		}
	})

	t.Run("strict mode fails on unset variable", func(t *testing.T) {
		loader := NewLoaderWithOptions(WithStrictEnv(true))
		_, err := loader.LoadString(`
storage:
  driver: sqlite
  dsn: ${DECISIOND_TEST_UNSET}
`, FormatYAML)
		if !errors.Is(err, ErrMissingEnvVar) {
			t.Fatalf("LoadString() = %v, want ErrMissingEnvVar", err)
		}
	})

	t.Run("expansion can be disabled", func(t *testing.T) {
		loader := NewLoaderWithOptions(WithEnvExpansion(false))
		cfg, err := loader.LoadString(`
storage:
  driver: sqlite
  dsn: ${DECISIOND_TEST_DSN}
`, FormatYAML)
		if err != nil {
			t.Fatalf("LoadString() error = %v", err)
		}
		if cfg.Storage.DSN != "${DECISIOND_TEST_DSN}" {
			t.Errorf("Storage.DSN = %q, want literal reference", cfg.Storage.DSN)
		}
	})
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	t.Run("yaml file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "decisiond.yaml")
		content := "storage:\n  driver: sqlite\n  dsn: " + filepath.Join(dir, "data.db") + "\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		cfg, err := NewLoader().LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
		if cfg.Storage.Driver != "sqlite" {
			t.Errorf("Storage.Driver = %q, want sqlite", cfg.Storage.Driver)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := NewLoader().LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("LoadFile() = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "decisiond.toml")
		if err := os.WriteFile(path, []byte("x = 1"), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		_, err := NewLoader().LoadFile(path)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("LoadFile() = %v, want ErrUnsupportedFormat", err)
		}
	})
}
