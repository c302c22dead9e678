package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hediet/typed-json-rpc/internal/config"
)

func TestNewReturnsDefaults(t *testing.T) {
	settings := config.New()
	assert.Equal(t, "typed-json-rpc-demo", settings.Server.Name)
	assert.Equal(t, "info", settings.Log.Level)
}

func TestLoadWithEmptyPathReturnsDefaults(t *testing.T) {
	settings, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.New(), settings)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	settings, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.New(), settings)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	contents := "server:\n  name: custom-demo\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	settings, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom-demo", settings.Server.Name)
	assert.Equal(t, "debug", settings.Log.Level)
	assert.Equal(t, config.New().Log.Path, settings.Log.Path)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [this is not a mapping"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestExpandPathLeavesNonTildePathsAlone(t *testing.T) {
	expanded, err := config.ExpandPath("/var/log/demo.log")
	require.NoError(t, err)
	assert.Equal(t, "/var/log/demo.log", expanded)
}

func TestExpandPathExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := config.ExpandPath("~/demo.log")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "demo.log"), expanded)
}
