// Package config handles configuration for the cmd/demo CLI, adapted
// from the teacher's internal/config.Settings: a defaults-first struct
// plus a ~-path expander, now backed by YAML file loading (yaml.v3) and
// mitchellh/go-homedir for the path expansion instead of os.UserHomeDir
// directly.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/hediet/typed-json-rpc/logging"
)

var logger = logging.GetLogger("config")

// Settings is the demo CLI's configuration.
type Settings struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig names the demo's calculator server.
type ServerConfig struct {
	Name string `yaml:"name"`
}

// LogConfig controls the demo's logging output.
type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// New returns Settings populated with defaults, mirroring the teacher's
// config.New default-construction pattern.
func New() *Settings {
	return &Settings{
		Server: ServerConfig{Name: "typed-json-rpc-demo"},
		Log:    LogConfig{Level: "info", Path: "~/.config/typed-json-rpc-demo/log.json"},
	}
}

// Load reads path as YAML over the defaults from New, so a partial config
// file only needs to specify what it overrides. A missing file is not an
// error: Load returns the defaults.
func Load(path string) (*Settings, error) {
	settings := New()
	if path == "" {
		return settings, nil
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("config file not found, using defaults", "path", expanded)
			return settings, nil
		}
		return nil, errors.Wrapf(err, "config: read %s", expanded)
	}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", expanded)
	}
	return settings, nil
}

// ExpandPath expands a leading ~ to the user's home directory via
// mitchellh/go-homedir, the way the teacher's config.ExpandPath does with
// os.UserHomeDir directly.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "config: resolve home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
