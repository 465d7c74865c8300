package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"bastion.yaml",
	"bastion.yml",
	"/etc/bastion/bastion.yaml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "BASTION_CONFIG"

// envPrefix namespaces the environment variable layer, e.g.
// BASTION_BLOCKING_STRATEGY -> blocking_strategy,
// BASTION_SERVER_PORT -> server.port.
const envPrefix = "BASTION_"

// sections with nested keys, used to map env var names to koanf paths.
var nestedSections = []string{"server", "detectors", "audit", "auth", "notify"}

// Load builds the configuration by layering struct defaults, an optional
// YAML file, and environment variables, then validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envTransform maps BASTION_SERVER_PORT to server.port and
// BASTION_BLOCKING_STRATEGY to blocking_strategy. Only known nested
// sections split on the first underscore; everything else stays a flat
// top-level key.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range nestedSections {
		if strings.HasPrefix(s, section+"_") {
			return section + "." + strings.TrimPrefix(s, section+"_")
		}
	}
	return s
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
