// Config and schema-definition loading for the reshape CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/reshape/internal/declarative"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	defaultSchemaFile = "schema.yaml"

	// Config keys.
	cfgKeyDB     = "db"
	cfgKeySchema = "schema"
	cfgKeyPrefix = "prefix"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Reshape CLI configuration

# Database file (optional; overridable by the --db flag)
# db:

# Schema definition file (optional; overridable by the --schema flag)
# schema:

# Table-name prefix restricting which tables reshape manages
# prefix:
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the config directory and a default config.yaml on
// first run. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile writes a default config.yaml on first run.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// loadDefinition reads a declarative schema definition from the YAML
// file at path.
func loadDefinition(path string) (declarative.Definition, error) {
	var def declarative.Definition

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return def, fmt.Errorf("read schema definition %q: %w", path, err)
	}
	if err := v.Unmarshal(&def); err != nil {
		return def, fmt.Errorf("parse schema definition %q: %w", path, err)
	}
	return def, nil
}
