// Package config loads the kosha configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds user-tunable settings. Every field has a working default so
// kosha runs without any config file at all.
type Config struct {
	// ClaudeDir is the Claude Code projects directory.
	ClaudeDir string `yaml:"claude_dir"`
	// CodexDir is the Codex sessions directory.
	CodexDir string `yaml:"codex_dir"`

	// CachePath is the scan snapshot location.
	CachePath string `yaml:"cache_path"`
	// NotesPath is the note/project store location.
	NotesPath string `yaml:"notes_path"`

	// UsageFileLimit bounds how many recent session files a usage query scans.
	UsageFileLimit int `yaml:"usage_file_limit"`
	// SearchLimit caps content-search results.
	SearchLimit int `yaml:"search_limit"`
	// SearchTool is the external grep-like executable.
	SearchTool string `yaml:"search_tool"`

	// LimitPhrases is the recognized quota-limit phrase list. English-only
	// and heuristic, which is why it is configuration rather than code.
	LimitPhrases []string `yaml:"limit_phrases"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		ClaudeDir:      filepath.Join(home, ".claude", "projects"),
		CodexDir:       filepath.Join(home, ".codex", "sessions"),
		CachePath:      filepath.Join(home, ".cache", "kosha", "scan.json"),
		NotesPath:      filepath.Join(home, ".config", "kosha", "notes.json"),
		UsageFileLimit: 50,
		SearchLimit:    200,
		SearchTool:     "rg",
	}
}

// DefaultPath returns the expected config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "kosha", "config.yaml")
}

// Load reads the config at path, filling unset fields from Default().
// A missing file yields the defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}

	if file.ClaudeDir != "" {
		cfg.ClaudeDir = file.ClaudeDir
	}
	if file.CodexDir != "" {
		cfg.CodexDir = file.CodexDir
	}
	if file.CachePath != "" {
		cfg.CachePath = file.CachePath
	}
	if file.NotesPath != "" {
		cfg.NotesPath = file.NotesPath
	}
	if file.UsageFileLimit > 0 {
		cfg.UsageFileLimit = file.UsageFileLimit
	}
	if file.SearchLimit > 0 {
		cfg.SearchLimit = file.SearchLimit
	}
	if file.SearchTool != "" {
		cfg.SearchTool = file.SearchTool
	}
	if len(file.LimitPhrases) > 0 {
		cfg.LimitPhrases = file.LimitPhrases
	}
	return cfg, nil
}
