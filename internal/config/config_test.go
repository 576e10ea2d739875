package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig("")
	require.NoError(t, err)

	assert.Equal(t, "islandora-handle-backend", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Settings.HTTPAddr)
	assert.NotEmpty(t, cfg.Handle.Endpoint)
	assert.NotEmpty(t, cfg.Fedora.BaseURL)
}

func TestNewConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
settings:
  http-addr: ":9999"
handle:
  endpoint: "https://handles.example.edu/api"
  prefix: "5555"
database:
  memory: true
`), 0o600))

	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Settings.HTTPAddr)
	assert.Equal(t, "https://handles.example.edu/api", cfg.Handle.Endpoint)
	assert.Equal(t, "5555", cfg.Handle.Prefix)
	assert.True(t, cfg.Database.Memory)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		expectedError bool
	}{
		{
			name:   "memory mode is self-contained",
			mutate: func(c *Config) { c.Database.Memory = true },
		},
		{
			name:   "pg uri satisfies database requirement",
			mutate: func(c *Config) { c.Database.PGURI = "postgres://localhost/handles" },
		},
		{
			name:          "no database backend",
			mutate:        func(c *Config) {},
			expectedError: true,
		},
		{
			name: "missing handle endpoint",
			mutate: func(c *Config) {
				c.Database.Memory = true
				c.Handle.Endpoint = ""
			},
			expectedError: true,
		},
		{
			name: "missing handle prefix",
			mutate: func(c *Config) {
				c.Database.Memory = true
				c.Handle.Prefix = ""
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewConfig("")
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
