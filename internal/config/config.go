package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

type UIConfig struct {
	Accent string `json:"accent"`
}

type Config struct {
	// ClaudeDir overrides the ~/.claude root the scanner reads from.
	ClaudeDir string `json:"claude_dir,omitempty"`
	// RedactProjects lists project paths or names whose identifying
	// text is masked in every output surface.
	RedactProjects []string `json:"redact_projects,omitempty"`
	UI             UIConfig `json:"ui"`
}

func DefaultConfig() Config {
	return Config{
		UI: UIConfig{Accent: "mauve"},
	}
}

func ConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "cctally")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cctally")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "settings.json")
}

func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.UI.Accent == "" {
		cfg.UI.Accent = DefaultConfig().UI.Accent
	}

	return cfg, nil
}

// saveMu guards read-modify-write cycles on the config file.
var saveMu sync.Mutex

func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

func SaveTo(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SaveAccent persists an accent name into the config file (read-modify-write).
func SaveAccent(accent string) error {
	return SaveAccentTo(ConfigPath(), accent)
}

func SaveAccentTo(path, accent string) error {
	saveMu.Lock()
	defer saveMu.Unlock()

	cfg, err := LoadFrom(path)
	if err != nil {
		cfg = DefaultConfig()
	}
	cfg.UI.Accent = accent
	return SaveTo(path, cfg)
}
