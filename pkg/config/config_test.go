package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/run/portod.sock", cfg.Socket)
	assert.Equal(t, -5, cfg.RtNice())
	assert.Greater(t, cfg.NumCores(), float64(0))
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portod.yaml")
	body := `
socket: /tmp/custom.sock
container:
  rt_nice: -10
  enable_smart: true
  num_cores: 8
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.sock", cfg.Socket)
	assert.Equal(t, -10, cfg.RtNice())
	assert.True(t, cfg.EnableSmart())
	assert.Equal(t, float64(8), cfg.NumCores())
}
