// Package config holds the run configuration of the unusedasset command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"

	"github.com/715d/unusedasset/internal/pathutil"
)

// ErrInvalid is returned when the configuration cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every option of one run. It is built once at startup and
// passed down explicitly.
type Config struct {
	InputPath  string `yaml:"input"`  // project root to analyze
	OutputPath string `yaml:"output"` // directory for the JSON artifacts

	ApplyGitignore bool     `yaml:"gitignore"` // filter sources with .gitignore
	ExcludeGlobs   []string `yaml:"exclude"`   // doublestar patterns removed from sources

	AnalyzeResources bool     `yaml:"analyze_resources"` // run inventory and reconciliation
	AdditionalDirs   []string `yaml:"additional_resource_folders"`
	ExcludeDirs      []string `yaml:"exclude_resource_folders"`
	Keep             []string `yaml:"keep"` // resource name patterns never reported unused

	UseCachedFiles     bool `yaml:"use_cached_files"`
	UseCachedResources bool `yaml:"use_cached_resources"`
	UseCachedUnused    bool `yaml:"use_cached_unused"`

	Delete    bool `yaml:"delete"` // remove unused resources
	AssumeYes bool `yaml:"yes"`    // skip the confirmation prompt

	Workers int  `yaml:"workers"` // zero means one per CPU
	Verbose bool `yaml:"verbose"`
	JSON    bool `yaml:"json"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		InputPath:      ".",
		OutputPath:     ".",
		ApplyGitignore: true,
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: read %s: %w", ErrInvalid, path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %w", ErrInvalid, path, err)
	}
	return cfg, nil
}

// Validate checks the configuration, makes the paths absolute and creates
// the output directory.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("%w: input path is empty", ErrInvalid)
	}
	input, err := filepath.Abs(c.InputPath)
	if err != nil {
		return fmt.Errorf("%w: input path: %w", ErrInvalid, err)
	}
	if err := pathutil.CheckDir(input); err != nil {
		return fmt.Errorf("%w: input path: %w", ErrInvalid, err)
	}
	c.InputPath = input

	if c.OutputPath == "" {
		c.OutputPath = "."
	}
	output, err := filepath.Abs(c.OutputPath)
	if err != nil {
		return fmt.Errorf("%w: output path: %w", ErrInvalid, err)
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return fmt.Errorf("%w: output path: %w", ErrInvalid, err)
	}
	c.OutputPath = output

	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalid)
	}
	if c.UseCachedUnused && !c.AnalyzeResources {
		return fmt.Errorf("%w: use_cached_unused requires analyze_resources", ErrInvalid)
	}
	if c.UseCachedResources && !c.AnalyzeResources {
		return fmt.Errorf("%w: use_cached_resources requires analyze_resources", ErrInvalid)
	}
	if c.Delete && !c.AnalyzeResources {
		return fmt.Errorf("%w: delete requires analyze_resources", ErrInvalid)
	}
	return nil
}
