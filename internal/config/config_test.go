package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.UI.Accent != "mauve" {
		t.Errorf("default accent = %q, want mauve", cfg.UI.Accent)
	}
	if cfg.ClaudeDir != "" {
		t.Errorf("default claude dir = %q, want empty", cfg.ClaudeDir)
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.UI.Accent != "mauve" {
		t.Error("should return defaults for missing file")
	}
}

func TestLoadFrom_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	content := `{
		"claude_dir": "/srv/claude",
		"redact_projects": ["secret", "/home/dev/hush"],
		"ui": {"accent": "blue"}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}

	if cfg.ClaudeDir != "/srv/claude" {
		t.Errorf("claude dir = %q, want /srv/claude", cfg.ClaudeDir)
	}
	if len(cfg.RedactProjects) != 2 || cfg.RedactProjects[0] != "secret" {
		t.Errorf("redact list = %v, want two entries", cfg.RedactProjects)
	}
	if cfg.UI.Accent != "blue" {
		t.Errorf("accent = %q, want blue", cfg.UI.Accent)
	}
}

func TestLoadFrom_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if cfg.UI.Accent != "mauve" {
		t.Error("malformed file should fall back to defaults")
	}
}

func TestLoadFrom_RepairsEmptyAccent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{"ui": {"accent": ""}}`), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.UI.Accent != "mauve" {
		t.Errorf("accent = %q, want repaired default", cfg.UI.Accent)
	}
}

func TestSaveAccentTo_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "settings.json")

	if err := SaveAccentTo(path, "green"); err != nil {
		t.Fatalf("SaveAccentTo: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.UI.Accent != "green" {
		t.Errorf("accent = %q, want green", cfg.UI.Accent)
	}
}

func TestSaveTo_PreservesRedactList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	cfg := DefaultConfig()
	cfg.RedactProjects = []string{"secret"}
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	if err := SaveAccentTo(path, "peach"); err != nil {
		t.Fatalf("SaveAccentTo: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if len(got.RedactProjects) != 1 || got.RedactProjects[0] != "secret" {
		t.Errorf("redact list = %v, accent save must not drop it", got.RedactProjects)
	}
	if got.UI.Accent != "peach" {
		t.Errorf("accent = %q, want peach", got.UI.Accent)
	}
}
