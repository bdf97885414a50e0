package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// UserConfigFile is where Save writes and where Load looks last.
func UserConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Save writes the config to UserConfigFile.
func (c *Config) Save() error {
	return c.SaveTo(UserConfigFile())
}

// SaveTo writes the config to a specific path. A .toml extension selects TOML.
func (c *Config) SaveTo(path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
