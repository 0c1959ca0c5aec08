package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// EnvProjectsRoot overrides ProjectsRoot when set.
const EnvProjectsRoot = "CHRONICLE_PROJECTS_ROOT"

// Config holds application configuration.
type Config struct {
	// ProjectsRoot is the directory holding one subdirectory per project,
	// each containing <session>.jsonl conversation logs.
	// A leading "~/" is expanded to the user's home directory.
	ProjectsRoot string `json:"projects_root" toml:"projects_root"`

	// ExcerptWidth is the maximum display width of first-message excerpts.
	ExcerptWidth int `json:"excerpt_width" toml:"excerpt_width"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" toml:"log_level"`

	// Watch enables the background file watcher in MCP server mode.
	// Freshness passes still run before every query when disabled.
	Watch bool `json:"watch,omitempty" toml:"watch"`

	// WatchDebounceMs is the quiet period before a watcher-triggered refresh.
	WatchDebounceMs int `json:"watch_debounce_ms,omitempty" toml:"watch_debounce_ms"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty" toml:"disabled_tools"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ProjectsRoot:    filepath.Join("~", ".claude", "projects"),
		ExcerptWidth:    200,
		LogLevel:        "info",
		WatchDebounceMs: 500,
	}
}

// Load loads configuration from baseDir/config.json, falling back to
// baseDir/config.toml. Returns default config if neither exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.chronicle.
func Load(baseDir string) (*Config, error) {
	jsonPath := filepath.Join(baseDir, "config.json")
	tomlPath := filepath.Join(baseDir, "config.toml")

	var (
		cfg *Config
		err error
	)
	if _, statErr := os.Stat(jsonPath); statErr == nil {
		cfg, err = loadFileRaw(jsonPath)
	} else {
		cfg, err = loadFileRaw(tomlPath)
	}
	if err != nil {
		return nil, err
	}

	result := Merge(DefaultConfig(), cfg)
	if root := strings.TrimSpace(os.Getenv(EnvProjectsRoot)); root != "" {
		result.ProjectsRoot = root
	}

	home, err := os.UserHomeDir()
	if err == nil {
		result.ProjectsRoot = expandHome(result.ProjectsRoot, home)
	}
	return result, nil
}

// loadFileRaw loads configuration from a specific file path.
// The format is chosen by extension. Returns zero-valued config if the
// file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	switch filepath.Ext(configPath) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configPath, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configPath, err)
		}
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.ProjectsRoot = overlay.ProjectsRoot
	if result.ProjectsRoot == "" {
		result.ProjectsRoot = base.ProjectsRoot
	}

	result.ExcerptWidth = overlay.ExcerptWidth
	if result.ExcerptWidth == 0 {
		result.ExcerptWidth = base.ExcerptWidth
	}

	result.LogLevel = overlay.LogLevel
	if result.LogLevel == "" {
		result.LogLevel = base.LogLevel
	}

	result.WatchDebounceMs = overlay.WatchDebounceMs
	if result.WatchDebounceMs == 0 {
		result.WatchDebounceMs = base.WatchDebounceMs
	}

	// Booleans: overlay wins if true, else base
	result.Watch = base.Watch || overlay.Watch

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values map to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return filepath.Join(home, path[2:])
	}
	return path
}
