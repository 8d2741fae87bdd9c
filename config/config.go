// Package config provides configuration loading and management for Cypilot.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Cypilot configuration
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	Markers   MarkersConfig   `yaml:"markers"`
	Rules     RulesConfig     `yaml:"rules"`
	Output    OutputConfig    `yaml:"output"`
}

// WorkspaceConfig configures document discovery
type WorkspaceConfig struct {
	// Root is the workspace root path (defaults to the current directory)
	Root string `yaml:"root"`
	// DocsGlob selects the artifact documents relative to Root
	DocsGlob string `yaml:"docs_glob"`
	// Exclude holds glob patterns for paths to skip during discovery
	Exclude []string `yaml:"exclude"`
}

// MarkersConfig configures the source-tree trace-marker scan
type MarkersConfig struct {
	// Sources are the directories to scan, relative to the workspace root
	Sources []string `yaml:"sources"`
	// Exclude holds glob patterns for paths to skip during the scan
	Exclude []string `yaml:"exclude"`
}

// RulesConfig configures the rule registry source
type RulesConfig struct {
	// Constraints is the path to a constraints JSON payload
	// (empty = built-in defaults)
	Constraints string `yaml:"constraints"`
}

// OutputConfig configures report rendering
type OutputConfig struct {
	// Format is "text" or "json"
	Format string `yaml:"format"`
	// FailOnWarning makes warnings fail the run
	FailOnWarning bool `yaml:"fail_on_warning"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Root:     "",
			DocsGlob: "docs/**/*.md",
		},
		Markers: MarkersConfig{
			Sources: []string{"."},
		},
		Rules: RulesConfig{
			Constraints: "",
		},
		Output: OutputConfig{
			Format:        "text",
			FailOnWarning: false,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Workspace.DocsGlob == "" {
		return fmt.Errorf("workspace.docs_glob is required")
	}
	if len(c.Markers.Sources) == 0 {
		return fmt.Errorf("markers.sources must name at least one directory")
	}
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("output.format must be \"text\" or \"json\", got %q", c.Output.Format)
	}
	return nil
}

// Merge overlays non-zero values from other onto c
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Workspace.Root != "" {
		c.Workspace.Root = other.Workspace.Root
	}
	if other.Workspace.DocsGlob != "" {
		c.Workspace.DocsGlob = other.Workspace.DocsGlob
	}
	if len(other.Workspace.Exclude) > 0 {
		c.Workspace.Exclude = other.Workspace.Exclude
	}
	if len(other.Markers.Sources) > 0 {
		c.Markers.Sources = other.Markers.Sources
	}
	if len(other.Markers.Exclude) > 0 {
		c.Markers.Exclude = other.Markers.Exclude
	}
	if other.Rules.Constraints != "" {
		c.Rules.Constraints = other.Rules.Constraints
	}
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
	if other.Output.FailOnWarning {
		c.Output.FailOnWarning = true
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &config, nil
}

// SaveToFile writes the configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}

	return nil
}
