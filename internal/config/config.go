// Package config loads compiler configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jacoelho/idlc/internal/attrschema"
	"github.com/jacoelho/idlc/internal/version"
)

// Config configures one compiler invocation.
type Config struct {
	// Available lists version selections in "platform:v1,v2" form.
	Available        []string                  `yaml:"available,omitempty"`
	WarningsAsErrors bool                      `yaml:"warnings_as_errors,omitempty"`
	AttributeSchemas []attrschema.SchemaConfig `yaml:"attribute_schemas,omitempty"`
	Experimental     []string                  `yaml:"experimental,omitempty"`
	LogLevel         string                    `yaml:"log_level,omitempty"`
}

// Experimental flags the compiler understands.
const (
	// FlagAllowUnusedImports downgrades unused imports to no diagnostic.
	FlagAllowUnusedImports = "allow_unused_imports"
	// FlagOutputIndex is accepted for compatibility and ignored.
	FlagOutputIndex = "output_index_json"
)

var knownFlags = map[string]bool{
	FlagAllowUnusedImports: true,
	FlagOutputIndex:        true,
}

var logLevels = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}

// Load decodes YAML configuration and validates it. Unknown keys are errors.
func Load(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile loads configuration from path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	cfg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks selections, schemas, flags and the log level.
func (c *Config) Validate() error {
	if _, err := c.Selection(); err != nil {
		return err
	}
	if _, err := c.Schemas(); err != nil {
		return err
	}
	for _, flag := range c.Experimental {
		if !knownFlags[flag] {
			return fmt.Errorf("unknown experimental flag %q", flag)
		}
	}
	if !logLevels[c.LogLevel] {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// Selection parses Available into a version selection.
func (c *Config) Selection() (*version.Selection, error) {
	sel := version.NewSelection()
	for _, text := range c.Available {
		if err := sel.ParseSelection(text); err != nil {
			return nil, fmt.Errorf("available %q: %w", text, err)
		}
	}
	return sel, nil
}

// Schemas converts the configured attribute schemas.
func (c *Config) Schemas() ([]attrschema.Schema, error) {
	out := make([]attrschema.Schema, 0, len(c.AttributeSchemas))
	for _, sc := range c.AttributeSchemas {
		s, err := sc.Schema()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// HasFlag reports whether an experimental flag is enabled.
func (c *Config) HasFlag(flag string) bool {
	for _, f := range c.Experimental {
		if f == flag {
			return true
		}
	}
	return false
}
