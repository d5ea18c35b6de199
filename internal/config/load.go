package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	// Explicit path takes priority over discovery.
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that no component can run with.
func (c *Config) Validate() error {
	switch c.Engine.Transport {
	case "tcp", "websocket", "dry-run":
	default:
		return fmt.Errorf("unknown engine transport %q", c.Engine.Transport)
	}
	switch c.Geometry.MeshType {
	case "static", "collision":
	default:
		return fmt.Errorf("unknown mesh type %q", c.Geometry.MeshType)
	}
	if c.Geometry.LOD < 0 {
		return fmt.Errorf("lod must be >= 0, got %d", c.Geometry.LOD)
	}
	if c.Geometry.WeldingThreshold < 0 {
		return fmt.Errorf("welding threshold must be >= 0, got %g", c.Geometry.WeldingThreshold)
	}
	if c.Geometry.UnitsPerMeter <= 0 {
		return fmt.Errorf("units per meter must be > 0, got %g", c.Geometry.UnitsPerMeter)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./akgeom.yaml",
		DefaultPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "akgeom")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "akgeom")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "akgeom")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "akgeom")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
