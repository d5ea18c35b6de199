package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteFile when the target exists and
// overwriting was not requested.
var ErrConfigExists = errors.New("config file already exists")

const fileHeader = "# akgeom configuration. Command-line flags override these values.\n"

// DefaultPath is where Load looks for the user's config file.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// WriteFile validates the config and writes it as YAML. The file is written
// to a temporary name and renamed into place.
func (c *Config) WriteFile(path string, overwrite bool) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".akgeom-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(fileHeader); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
