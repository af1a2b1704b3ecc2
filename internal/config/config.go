// Package config loads the sipstream configuration file.
//
// Configuration is YAML with defaults that work out of the box; a missing
// file is not an error. Values pass through the same sanitation bounds the
// preference store enforces, so a hand-edited config cannot smuggle an
// absurd goal into the engine.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Goal bounds mirrored from the preference store.
const (
	MinGoal     = 500
	MaxGoal     = 10000
	DefaultGoal = 2500
)

// Config is the full configuration tree.
type Config struct {
	// BackendURL is the sipstream API base URL.
	BackendURL string `yaml:"backend_url"`

	// DataDir holds the preference database and session file. Defaults
	// to ~/.sipstream.
	DataDir string `yaml:"data_dir"`

	// DefaultGoal seeds the base goal for fresh installs, in ml.
	DefaultGoal int `yaml:"default_goal"`

	// DrinkAmount is the volume logged when no amount or preset is
	// given, in ml.
	DrinkAmount int `yaml:"drink_amount"`

	// RequestTimeout bounds individual API calls.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// GoalDebounce is the quiet period before a goal change pushes.
	GoalDebounce time.Duration `yaml:"goal_debounce"`

	// StatsDays is the trailing window for the history chart and streak.
	StatsDays int `yaml:"stats_days"`

	Log LogConfig `yaml:"log"`
}

// LogConfig controls the rotating file log.
type LogConfig struct {
	// File is the log path; empty logs to stderr only.
	File string `yaml:"file"`
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`
	// MaxSizeMB rotates the file past this size.
	MaxSizeMB int `yaml:"max_size_mb"`
	// MaxBackups bounds rotated files kept.
	MaxBackups int `yaml:"max_backups"`
	// MaxAgeDays expires rotated files.
	MaxAgeDays int `yaml:"max_age_days"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		BackendURL:     "http://localhost:8000",
		DataDir:        filepath.Join(home, ".sipstream"),
		DefaultGoal:    DefaultGoal,
		DrinkAmount:    200,
		RequestTimeout: 10 * time.Second,
		GoalDebounce:   500 * time.Millisecond,
		StatsDays:      30,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
	}
}

// Load reads the config at path, layering it over Default. An absent file
// returns pure defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.sanitize()
	return cfg, nil
}

// sanitize clamps values a hand-edited file could break. Corrections are
// silent: config is advisory, not authoritative.
func (c *Config) sanitize() {
	if c.DefaultGoal < MinGoal || c.DefaultGoal > MaxGoal {
		c.DefaultGoal = DefaultGoal
	}
	if c.DrinkAmount <= 0 || c.DrinkAmount > 2000 {
		c.DrinkAmount = 200
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.GoalDebounce <= 0 {
		c.GoalDebounce = 500 * time.Millisecond
	}
	if c.StatsDays <= 0 || c.StatsDays > 365 {
		c.StatsDays = 30
	}
}

// SessionFile is the identity session path under the data dir.
func (c Config) SessionFile() string {
	return filepath.Join(c.DataDir, "session.json")
}

// StorePath is the preference database path under the data dir.
func (c Config) StorePath() string {
	return filepath.Join(c.DataDir, "prefs.db")
}
