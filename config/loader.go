package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/olap/engine"
	"github.com/spektr-org/olap/generator"
	"github.com/spektr-org/olap/schema"
)

// Config is the file-level configuration of the olap shell.
type Config struct {
	Generator generator.Config `json:"generator" yaml:"generator"`
	Engine    EngineConfig     `json:"engine" yaml:"engine"`
	Output    OutputConfig     `json:"output" yaml:"output"`
	// Schema overrides presentation metadata of the built-in sales schema.
	Schema *schema.Config `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// EngineConfig mirrors the engine's functional options.
type EngineConfig struct {
	Workers            int    `json:"workers" yaml:"workers"`
	PartitionThreshold int    `json:"partitionThreshold" yaml:"partitionThreshold"`
	Validation         string `json:"validation" yaml:"validation"` // "strict" or "normalize"
}

// OutputConfig selects the renderer.
type OutputConfig struct {
	Format string `json:"format" yaml:"format"` // "json", "csv" or "text"
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Generator: generator.DefaultConfig(),
		Engine:    EngineConfig{Validation: "strict"},
		Output:    OutputConfig{Format: "text"},
	}
}

// LoadConfig loads and validates the configuration file (supports JSON and YAML).
// Fields absent from the file keep their Default values.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()

	// Determine format by file extension
	if filepath.Ext(configPath) == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Generator.Validate(); err != nil {
		return err
	}
	if _, err := engine.ParseValidationMode(c.Engine.Validation); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine: workers must not be negative, got %d", c.Engine.Workers)
	}
	if c.Engine.PartitionThreshold < 0 {
		return fmt.Errorf("engine: partitionThreshold must not be negative, got %d", c.Engine.PartitionThreshold)
	}
	switch c.Output.Format {
	case "", "json", "csv", "text":
	default:
		return fmt.Errorf("output: unknown format %q", c.Output.Format)
	}
	if c.Schema != nil {
		if err := c.EffectiveSchema().Validate(); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// EngineOptions translates the file configuration into engine options.
func (c *Config) EngineOptions() []engine.Option {
	var opts []engine.Option
	if c.Engine.Workers > 0 {
		opts = append(opts, engine.WithWorkers(c.Engine.Workers))
	}
	if c.Engine.PartitionThreshold > 0 {
		opts = append(opts, engine.WithPartitionThreshold(c.Engine.PartitionThreshold))
	}
	if mode, err := engine.ParseValidationMode(c.Engine.Validation); err == nil {
		opts = append(opts, engine.WithValidation(mode))
	}
	if c.Schema != nil {
		opts = append(opts, engine.WithSchema(c.EffectiveSchema()))
	}
	return opts
}

// EffectiveSchema is the built-in sales schema with the file overrides applied.
func (c *Config) EffectiveSchema() schema.Config {
	if c.Schema == nil {
		return schema.Sales()
	}
	return schema.Sales().Merge(*c.Schema)
}

// SaveConfig writes the configuration to file, JSON or YAML by extension.
func SaveConfig(configPath string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if filepath.Ext(configPath) == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
