// Package config loads the resourcekit settings file: logging options plus
// the package directories the registry scans. Settings layer in increasing
// precedence: built-in defaults, the optional YAML settings file (with
// ${VAR} environment substitution), then RESOURCEKIT_* environment
// variables.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/resourcekit/pkg/errors"
	"github.com/ajitpratap0/resourcekit/pkg/resource/registry"
)

// Config is the full resourcekit configuration.
type Config struct {
	LogLevel    string          `yaml:"log_level"`
	LogEncoding string          `yaml:"log_encoding"`
	Registry    registry.Config `yaml:"registry"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel:    "error",
		LogEncoding: "console",
		Registry: registry.Config{
			ManifestName: registry.DefaultManifestName,
		},
	}
}

// Load reads the YAML settings file at path over the defaults, then applies
// environment overrides. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // G304: settings path supplied by the operator
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read settings file")
		}
		content := substituteEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse settings file")
		}
	}

	cfg.applyEnv()
	if cfg.Registry.ManifestName == "" {
		cfg.Registry.ManifestName = registry.DefaultManifestName
	}
	return cfg, nil
}

// applyEnv overlays RESOURCEKIT_* environment variables
func (c *Config) applyEnv() {
	env := registry.ConfigFromEnv()
	if len(env.ProtocolDirs) > 0 {
		c.Registry.ProtocolDirs = env.ProtocolDirs
	}
	if len(env.ProviderDirs) > 0 {
		c.Registry.ProviderDirs = env.ProviderDirs
	}
	if env.ManifestName != "" {
		c.Registry.ManifestName = env.ManifestName
	}
	if level := os.Getenv("RESOURCEKIT_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if encoding := os.Getenv("RESOURCEKIT_LOG_ENCODING"); encoding != "" {
		c.LogEncoding = encoding
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// Unset variables substitute to the empty string.
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		content = content[:start] + os.Getenv(varName) + content[end+1:]
	}
	return content
}
