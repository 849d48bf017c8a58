package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ALGOLAB_BASE_URL", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.BaseURL)
	assert.Equal(t, 3000*time.Millisecond, cfg.ExecTimeout)
	assert.Equal(t, "Main", cfg.EntryFunc)
	assert.False(t, cfg.Offline)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "algolab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: http://algorithms.test:9000
exec_timeout: 5s
workers: 4
offline: true
`), 0o644))
	t.Setenv("ALGOLAB_WORKERS", "8")
	t.Setenv("ALGOLAB_DATA_DIR", "/tmp/algolab-data")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://algorithms.test:9000", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.ExecTimeout)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.Offline)
	assert.Equal(t, "/tmp/algolab-data", cfg.DataDir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NoError(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [1"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.BaseURL = "" }},
		{"relative base url", func(c *Config) { c.BaseURL = "algorithms" }},
		{"zero exec timeout", func(c *Config) { c.ExecTimeout = 0 }},
		{"negative request timeout", func(c *Config) { c.RequestTimeout = -time.Second }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"no entry", func(c *Config) { c.EntryFunc = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}
