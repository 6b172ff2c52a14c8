package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/opal-lang/seqscope/core/binding"
)

// DefaultConfigFile is read from the working directory when --config is
// not given.
const DefaultConfigFile = "scopectl.yaml"

// Config is the scopectl.yaml file. Flags override it.
type Config struct {
	Workspace   string   `yaml:"workspace"`
	LogLevel    string   `yaml:"log_level"`    // "info" (default) or "debug"
	Color       string   `yaml:"color"`        // "auto" (default), "always" or "never"
	DefaultKind string   `yaml:"default_kind"` // kind policy for header edits
	Features    Features `yaml:"features"`
}

// Features are the feature flags scopectl passes to the editor.
type Features struct {
	MultipleVariablesEnabled bool `yaml:"multiple_variables"`
}

// MultipleVariables implements binding.FeatureFlags.
func (f Features) MultipleVariables() bool { return f.MultipleVariablesEnabled }

// DefaultConfig is used when no file exists.
func DefaultConfig() Config {
	return Config{
		Workspace:   ".",
		LogLevel:    "info",
		Color:       "auto",
		DefaultKind: binding.Variable.String(),
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error
// unless required is set.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.LogLevel {
	case "info", "debug":
	default:
		return fmt.Errorf("config: log_level must be info or debug, got %q", c.LogLevel)
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("config: color must be auto, always or never, got %q", c.Color)
	}
	if _, err := binding.ParseKind(c.DefaultKind); err != nil {
		return fmt.Errorf("config: default_kind: %w", err)
	}
	return nil
}
