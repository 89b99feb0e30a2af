// Package agentconfig loads the optional on-disk ".agent/config.yaml" file:
// non-secret defaults (provider, workspace, thinking level) layered
// underneath, never instead of, the CODING_AGENT_* environment variables.
package agentconfig

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the defaults a ".agent/config.yaml" file may set. Every
// field is optional; a zero value means "no default, fall through to the
// environment or the hardcoded fallback".
type Config struct {
	DefaultProvider      string `yaml:"default_provider"`
	DefaultWorkspace     string `yaml:"default_workspace"`
	DefaultThinkingLevel string `yaml:"default_thinking_level"`
}

// Load reads and strict-decodes path, expanding environment variable
// references first, the same read-bytes/ExpandEnv/strict-decode shape the
// donor's internal/config/loader.go uses for its own YAML files (trimmed
// here to a flat, $include-free schema since this file carries only a
// handful of scalar defaults). A missing file is not an error: it returns
// a zero Config, since the file is entirely optional.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read agent config %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	if strings.TrimSpace(expanded) == "" {
		return Config{}, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	decoder.KnownFields(true)

	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse agent config %s: %w", path, err)
	}
	return cfg, nil
}
