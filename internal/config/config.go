// Package config loads the YAML configuration for the command-line
// tools.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	StorePath     string `yaml:"storePath"`
	MinimumFreeGB int    `yaml:"minimumFreeGB"`
	LogLevel      string `yaml:"logLevel"`
}

// Load reads the config file at path. A missing file yields defaults.
func Load(path string) (Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return config, fmt.Errorf("error reading config %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("error parsing config %s: %w", path, err)
		}
	}

	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	return config, nil
}
