// Package config loads arbor's settings from YAML or TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DirName is the per-project directory holding config, view state and snapshots.
const DirName = ".arbor"

// Config is the top-level configuration file structure
type Config struct {
	// Outline is the default outline document opened when none is given.
	Outline string `yaml:"outline" toml:"outline"`

	// StateDir holds tree-state.json and the snapshot database.
	StateDir string `yaml:"state_dir" toml:"state_dir"`

	// Snapshots is the SQLite database path. Defaults to StateDir/snapshots.db.
	Snapshots string `yaml:"snapshots" toml:"snapshots"`

	// FastLoad bulk-inserts outlines in fast mode and refreshes visibility once.
	FastLoad bool `yaml:"fast_load" toml:"fast_load"`

	// ExpandDepth is how many levels start expanded when no saved state exists.
	ExpandDepth int `yaml:"expand_depth" toml:"expand_depth"`

	// Theme is "auto", "dark" or "light".
	Theme string `yaml:"theme" toml:"theme"`

	Log LogConfig `yaml:"log" toml:"log"`
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file" toml:"file"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	cfg := Config{
		StateDir:    DirName,
		FastLoad:    true,
		ExpandDepth: 1,
		Theme:       "auto",
		Log:         LogConfig{Level: "warn"},
	}
	cfg.ApplyDefaults()
	return cfg
}

// LoadFromFile reads a YAML (.yaml, .yml) or TOML (.toml) configuration file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	cfg.Snapshots = ""
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyDefaults fills in values left empty by the file.
func (c *Config) ApplyDefaults() {
	if c.StateDir == "" {
		c.StateDir = DirName
	}
	if c.Snapshots == "" {
		c.Snapshots = filepath.Join(c.StateDir, "snapshots.db")
	}
	if c.Theme == "" {
		c.Theme = "auto"
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
}

// Validate checks for settings that cannot work.
func (c *Config) Validate() error {
	switch c.Theme {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("invalid theme %q (want auto, dark or light)", c.Theme)
	}
	if c.ExpandDepth < 0 {
		return fmt.Errorf("expand_depth cannot be negative: %d", c.ExpandDepth)
	}
	return nil
}

// Resolve makes relative paths absolute against base and expands ~.
func (c *Config) Resolve(base string) {
	c.Outline = resolvePath(base, c.Outline)
	c.StateDir = resolvePath(base, c.StateDir)
	c.Snapshots = resolvePath(base, c.Snapshots)
	c.Log.File = resolvePath(base, c.Log.File)
}

func resolvePath(base, p string) string {
	if p == "" {
		return ""
	}
	p = expandHome(p)
	if filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
