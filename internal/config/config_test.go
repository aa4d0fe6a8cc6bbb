package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/doccontent/internal/content"
)

type mapLoader map[string]any

func (m mapLoader) Load() (map[string]any, error) { return m, nil }

func TestLoadDefaults(t *testing.T) {
	cfg, err := load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadLayers(t *testing.T) {
	file := mapLoader{
		"content": map[string]any{"max_undo": int64(10), "sharing_includes_displaced": true},
		"session": map[string]any{"seed": int64(99)},
	}
	env := mapLoader{
		"content": map[string]any{"max_undo": int64(20)},
		"log":     map[string]any{"level": "debug"},
	}

	cfg, err := load(file, env)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Content.MaxUndo)
	assert.True(t, cfg.Content.SharingIncludesDisplaced)
	assert.Equal(t, content.DefaultSweepThreshold, cfg.Content.SweepThreshold)
	assert.Equal(t, uint64(99), cfg.Session.Seed)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doccontent.toml")
	require.NoError(t, os.WriteFile(path, []byte("[session]\nsteps = 250\nalphabet = \"xy\"\n"), 0o644))
	t.Setenv("DOCCONTENT_SESSION_STEPS", "300")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Session.Steps)
	assert.Equal(t, "xy", cfg.Session.Alphabet)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"max undo", func(c *Config) { c.Content.MaxUndo = 0 }, "content.max_undo"},
		{"sweep threshold", func(c *Config) { c.Content.SweepThreshold = 0 }, "content.sweep_threshold"},
		{"capacity", func(c *Config) { c.Content.InitialCapacity = -1 }, "content.initial_capacity"},
		{"sessions", func(c *Config) { c.Session.Sessions = 0 }, "session.sessions"},
		{"steps", func(c *Config) { c.Session.Steps = -5 }, "session.steps"},
		{"max insert", func(c *Config) { c.Session.MaxInsert = 0 }, "session.max_insert"},
		{"alphabet", func(c *Config) { c.Session.Alphabet = "" }, "session.alphabet"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrValidationFailed)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.path, verr.Path)
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := load(mapLoader{"content": map[string]any{"max_undo": int64(0)}})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestContentOptions(t *testing.T) {
	cfg := Default().Content
	cfg.MaxUndo = 1
	cfg.SharingIncludesDisplaced = true

	c := content.New(append(cfg.Options(), content.WithText("hello world"))...)
	p, err := c.CreatePosition(4)
	require.NoError(t, err)
	require.NoError(t, c.Remove(2, 5))
	q, err := c.CreatePosition(2)
	require.NoError(t, err)
	assert.Same(t, p, q)

	require.NoError(t, c.Insert(0, "a"))
	require.NoError(t, c.Undo())
	assert.False(t, c.CanUndo())
}
