package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oasgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeTempConfig(t, `
listen: ":9090"
upstream: "http://backend:3000"
spec: "api.yaml"
validate_response: false
passthrough_unmatched: true
log:
  level: debug
  format: json
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "http://backend:3000", cfg.Upstream)
	assert.Equal(t, "api.yaml", cfg.Spec)
	assert.True(t, cfg.RequestValidationEnabled(), "unset toggle defaults to true")
	assert.False(t, cfg.ResponseValidationEnabled())
	assert.True(t, cfg.PassthroughUnmatched)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := LoadFromFile(writeTempConfig(t, ""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := LoadFromFile(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := LoadFromFile(writeTempConfig(t, "listen: [unclosed"))
		assert.ErrorIs(t, err, ErrInvalidYAML)
	})
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("spec: api.yaml\nupstream: http://localhost:3000\n"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.RequestValidationEnabled())
	assert.True(t, cfg.ResponseValidationEnabled())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing spec", func(c *Config) { c.Spec = "" }, "spec path is required"},
		{"missing upstream", func(c *Config) { c.Upstream = "" }, "upstream URL is required"},
		{"missing listen", func(c *Config) { c.Listen = "" }, "listen address is required"},
		{"bad upstream scheme", func(c *Config) { c.Upstream = "ftp://host" }, "must use http or https"},
		{"upstream without host", func(c *Config) { c.Upstream = "http://" }, "has no host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Spec = "api.yaml"
			cfg.Upstream = "http://localhost:3000"
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
