package config

import (
	"errors"
	"fmt"
	"os"
	"unusedjars/jdeps"
	"unusedjars/models"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

const DefaultFile = "unusedjars.yaml"

// Config holds the analysis settings. Deps are written as group:artifact.
type Config struct {
	// Jar names of the analyzed application itself; jdeps lines mentioning them are skipped.
	SelfJars []string `yaml:"self_jars"`

	// Further substrings whose jdeps lines are skipped.
	Skip []string `yaml:"skip"`

	// Substrings marking a reference into the JDK or to an unresolved class.
	JDKMarkers []string `yaml:"jdk_markers"`

	// Deps that must never be reported unused nor excluded.
	Whitelist []string `yaml:"whitelist"`

	// Deps that must show up as used, a smoke check of the jdeps input.
	Required []string `yaml:"required"`

	// Substrings of group or artifact; matching unused deps are kept back.
	Retain []string `yaml:"retain"`

	// Count jars that are only referenced, never referencing, as used.
	CountReferenced bool   `yaml:"count_referenced"`
	LargeThreshold  string `yaml:"large_threshold"`
}

func Default() *Config {
	return &Config{
		Skip:           append([]string{}, jdeps.DefaultSkip...),
		JDKMarkers:     append([]string{}, jdeps.DefaultJDKMarkers...),
		LargeThreshold: "3MB",
	}
}

// Load reads a YAML config. Fields the file leaves out keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	config, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return config, err
}

func (c *Config) Validate() error {
	if _, err := models.ParseDeps(c.Whitelist); err != nil {
		return fmt.Errorf("whitelist: %w", err)
	}
	if _, err := models.ParseDeps(c.Required); err != nil {
		return fmt.Errorf("required: %w", err)
	}
	if c.LargeThreshold != "" {
		if _, err := humanize.ParseBytes(c.LargeThreshold); err != nil {
			return fmt.Errorf("large_threshold: %w", err)
		}
	}
	return nil
}

func (c *Config) WhitelistDeps() []models.Dep {
	deps, _ := models.ParseDeps(c.Whitelist)
	return deps
}

func (c *Config) RequiredDeps() []models.Dep {
	deps, _ := models.ParseDeps(c.Required)
	return deps
}

// SkipPatterns is every substring that disqualifies a jdeps line.
func (c *Config) SkipPatterns() []string {
	return append(append([]string{}, c.SelfJars...), c.Skip...)
}
