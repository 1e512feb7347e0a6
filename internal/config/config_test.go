package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lbpress.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
letterboxd:
  user: filmfan
wordpress:
  url: https://example.com/
  user: admin
  key: secret
  categories: [3, 4]
  tags: [7]
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff("filmfan", cfg.Letterboxd.User); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3, 4}, cfg.WordPress.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}

	t.Run("defaults", func(t *testing.T) {
		if cfg.Local.DBPath != "./data/lbpress.db" {
			t.Errorf("db path = %q", cfg.Local.DBPath)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("log level = %q", cfg.LogLevel)
		}
		if cfg.WordPress.CiteStyle != CiteItalic {
			t.Errorf("cite style = %q", cfg.WordPress.CiteStyle)
		}
		if !cfg.Letterboxd.WatchedDatePreferred() {
			t.Error("watched date should be preferred by default")
		}
	})
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing wordpress url",
			content: `
letterboxd:
  user: filmfan
wordpress:
  user: admin
  key: secret
`,
		},
		{
			name: "missing letterboxd user",
			content: `
wordpress:
  url: https://example.com/
  user: admin
  key: secret
`,
		},
		{
			name: "missing key",
			content: `
letterboxd:
  user: filmfan
wordpress:
  url: https://example.com/
  user: admin
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoadInvalidCiteStyle(t *testing.T) {
	content := validConfig + `  citeStyle: bold
`
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Fatal("expected error for invalid cite style")
	}
}

func TestLoadCiteStyle(t *testing.T) {
	content := validConfig + `  citeStyle: cite
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WordPress.CiteStyle != CitePlugin {
		t.Errorf("cite style = %q, want cite", cfg.WordPress.CiteStyle)
	}
}

func TestLoadPreferWatchedDateOverride(t *testing.T) {
	content := `
letterboxd:
  user: filmfan
  preferWatchedDate: false
wordpress:
  url: https://example.com/
  user: admin
  key: secret
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Letterboxd.WatchedDatePreferred() {
		t.Error("expected watched date preference to be disabled")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
