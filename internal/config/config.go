// Package config loads doccontent settings.
//
// Settings come from three layers, later layers winning:
//
//   - built-in defaults
//   - a TOML file (optional)
//   - DOCCONTENT_* environment variables
//
// Example file:
//
//	[log]
//	level = "debug"
//
//	[content]
//	max_undo = 200
//	sharing_includes_displaced = true
//
//	[session]
//	seed = 42
//	steps = 5000
package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/doccontent/internal/config/loader"
	"github.com/dshills/doccontent/internal/content"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "DOCCONTENT_"

// Config is the complete configuration.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Content ContentConfig `toml:"content"`
	Session SessionConfig `toml:"session"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// ContentConfig configures documents.
type ContentConfig struct {
	MaxUndo                  int  `toml:"max_undo"`
	SweepThreshold           int  `toml:"sweep_threshold"`
	SharingIncludesDisplaced bool `toml:"sharing_includes_displaced"`
	InitialCapacity          int  `toml:"initial_capacity"`
}

// SessionConfig configures randomized sessions.
type SessionConfig struct {
	Seed      uint64 `toml:"seed"`
	Sessions  int    `toml:"sessions"`
	Steps     int    `toml:"steps"`
	MaxInsert int    `toml:"max_insert"`
	Alphabet  string `toml:"alphabet"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Content: ContentConfig{
			MaxUndo:        content.DefaultMaxUndo,
			SweepThreshold: content.DefaultSweepThreshold,
		},
		Session: SessionConfig{
			Seed:      1,
			Sessions:  1,
			Steps:     1000,
			MaxInsert: 8,
			Alphabet:  "abcdefgh \n",
		},
	}
}

// Load reads path (if non-empty and present) and the environment on top
// of the defaults.
func Load(path string) (Config, error) {
	return load(loader.NewTOMLLoader(path), loader.NewEnvLoader(EnvPrefix))
}

func load(sources ...loader.Loader) (Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return Config{}, err
	}
	for _, src := range sources {
		m, err := src.Load()
		if err != nil {
			return Config{}, err
		}
		merged = loader.DeepMerge(merged, m)
	}

	data, err := toml.Marshal(merged)
	if err != nil {
		return Config{}, fmt.Errorf("encoding merged config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding merged config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func toMap(cfg Config) (map[string]any, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding defaults: %w", err)
	}
	return m, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Content.MaxUndo < 1:
		return &ValidationError{Path: "content.max_undo", Value: c.Content.MaxUndo, Message: "must be at least 1"}
	case c.Content.SweepThreshold < 1:
		return &ValidationError{Path: "content.sweep_threshold", Value: c.Content.SweepThreshold, Message: "must be at least 1"}
	case c.Content.InitialCapacity < 0:
		return &ValidationError{Path: "content.initial_capacity", Value: c.Content.InitialCapacity, Message: "must not be negative"}
	case c.Session.Sessions < 1:
		return &ValidationError{Path: "session.sessions", Value: c.Session.Sessions, Message: "must be at least 1"}
	case c.Session.Steps < 0:
		return &ValidationError{Path: "session.steps", Value: c.Session.Steps, Message: "must not be negative"}
	case c.Session.MaxInsert < 1:
		return &ValidationError{Path: "session.max_insert", Value: c.Session.MaxInsert, Message: "must be at least 1"}
	case c.Session.Alphabet == "":
		return &ValidationError{Path: "session.alphabet", Value: c.Session.Alphabet, Message: "must not be empty"}
	}
	return nil
}

// Options converts the content section to content options.
func (c ContentConfig) Options() []content.Option {
	opts := []content.Option{
		content.WithMaxUndo(c.MaxUndo),
		content.WithSweepThreshold(c.SweepThreshold),
	}
	if c.InitialCapacity > 0 {
		opts = append(opts, content.WithInitialCapacity(c.InitialCapacity))
	}
	if c.SharingIncludesDisplaced {
		opts = append(opts, content.WithSharingIncludesDisplaced())
	}
	return opts
}
