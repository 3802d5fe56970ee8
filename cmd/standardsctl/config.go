// Package main provides the standardsctl binary.
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solaius/standards-registry/pkg/audit"
	"github.com/solaius/standards-registry/pkg/watch"
)

// serverConfig is the YAML configuration consumed by the serve command.
type serverConfig struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// Repo is the repository root. When empty the --repo flag applies.
	Repo string `yaml:"repo"`
	// CORSAllowedOrigins lists origins allowed by the management API.
	CORSAllowedOrigins []string `yaml:"corsAllowedOrigins"`

	Audit audit.Config `yaml:"audit"`
	Watch watch.Config `yaml:"watch"`
}

// defaultServerConfig returns the configuration used when no file is given.
func defaultServerConfig() serverConfig {
	return serverConfig{
		Listen:             ":8081",
		CORSAllowedOrigins: []string{"https://*", "http://*"},
		Audit:              audit.DefaultConfig(),
	}
}

// loadServerConfig reads the YAML config at path, falling back to
// defaults when path is empty or the file does not exist.
func loadServerConfig(path string) (serverConfig, error) {
	cfg := defaultServerConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
