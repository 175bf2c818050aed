// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Environment variables read by ApplyEnv
const (
	EnvAPIKey      = "GEMINI_API_KEY"
	EnvDatabaseURL = "DATABASE_URL"
	EnvTemplateDir = "RESUME_TEMPLATE_DIR"
	EnvOutputDir   = "RESUME_OUTPUT_DIR"
)

// Config represents the configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	TemplateDir string `json:"template_dir,omitempty" yaml:"template_dir,omitempty"` // Directory of original <id>.tex resumes
	OutputDir   string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`     // Directory for tailored artifacts

	// Storage
	Store       string `json:"store,omitempty" yaml:"store,omitempty"`               // memory, postgres or sqlite
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL
	SQLitePath  string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`   // SQLite database file

	// Server
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"` // Listen address for serve

	// Limits
	MaxConcurrentJobs int `json:"max_concurrent_jobs,omitempty" yaml:"max_concurrent_jobs,omitempty"`
	MaxRepairAttempts int `json:"max_repair_attempts,omitempty" yaml:"max_repair_attempts,omitempty"`
	MinPostingLength  int `json:"min_posting_length,omitempty" yaml:"min_posting_length,omitempty"`
	MaxPages          int `json:"max_pages,omitempty" yaml:"max_pages,omitempty"` // Page count reported as overflow

	// Timeouts in seconds
	GenerationTimeout int `json:"generation_timeout,omitempty" yaml:"generation_timeout,omitempty"`
	MetadataTimeout   int `json:"metadata_timeout,omitempty" yaml:"metadata_timeout,omitempty"`
	RenderTimeout     int `json:"render_timeout,omitempty" yaml:"render_timeout,omitempty"`

	// Behavior
	APIKey      string            `json:"api_key,omitempty" yaml:"api_key,omitempty"`           // Gemini API key
	LatexEngine string            `json:"latex_engine,omitempty" yaml:"latex_engine,omitempty"` // pdflatex by default
	Models      map[string]string `json:"models,omitempty" yaml:"models,omitempty"`             // Model name per tier
	Sections    []string          `json:"sections,omitempty" yaml:"sections,omitempty"`         // Recognized section names
	Verbose     bool              `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		TemplateDir: "resumes",
		OutputDir:   "output",
		Store:       StoreMemory,
		SQLitePath:  "resume-tailor.db",
		Addr:        ":8080",
		LatexEngine: "pdflatex",
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Environment variables in the file are expanded before parsing.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// ApplyEnv fills empty fields from the environment.
func (c *Config) ApplyEnv() {
	setIfEmpty(&c.APIKey, EnvAPIKey)
	setIfEmpty(&c.DatabaseURL, EnvDatabaseURL)
	setIfEmpty(&c.TemplateDir, EnvTemplateDir)
	setIfEmpty(&c.OutputDir, EnvOutputDir)
}

func setIfEmpty(field *string, env string) {
	if *field == "" {
		*field = os.Getenv(env)
	}
}

// Validate checks that the configuration has valid values.
// Required fields are checked by the commands that need them.
func (c *Config) Validate() error {
	switch c.Store {
	case "", StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required when store is %q", StorePostgres)
		}
	default:
		return fmt.Errorf("config error: unknown store %q (want memory, postgres or sqlite)", c.Store)
	}

	for name, v := range map[string]int{
		"max_concurrent_jobs": c.MaxConcurrentJobs,
		"max_repair_attempts": c.MaxRepairAttempts,
		"min_posting_length":  c.MinPostingLength,
		"max_pages":           c.MaxPages,
		"generation_timeout":  c.GenerationTimeout,
		"metadata_timeout":    c.MetadataTimeout,
		"render_timeout":      c.RenderTimeout,
	} {
		if v < 0 {
			return fmt.Errorf("config error: '%s' must be non-negative", name)
		}
	}

	if c.TemplateDir != "" {
		info, err := os.Stat(c.TemplateDir)
		if err == nil && !info.IsDir() {
			return fmt.Errorf("config error: template_dir is not a directory: %s", c.TemplateDir)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	for _, f := range []struct {
		dst *string
		def string
	}{
		{&result.TemplateDir, defaults.TemplateDir},
		{&result.OutputDir, defaults.OutputDir},
		{&result.Store, defaults.Store},
		{&result.DatabaseURL, defaults.DatabaseURL},
		{&result.SQLitePath, defaults.SQLitePath},
		{&result.Addr, defaults.Addr},
		{&result.APIKey, defaults.APIKey},
		{&result.LatexEngine, defaults.LatexEngine},
	} {
		if *f.dst == "" {
			*f.dst = f.def
		}
	}

	// Int fields: use default if zero
	for _, f := range []struct {
		dst *int
		def int
	}{
		{&result.MaxConcurrentJobs, defaults.MaxConcurrentJobs},
		{&result.MaxRepairAttempts, defaults.MaxRepairAttempts},
		{&result.MinPostingLength, defaults.MinPostingLength},
		{&result.MaxPages, defaults.MaxPages},
		{&result.GenerationTimeout, defaults.GenerationTimeout},
		{&result.MetadataTimeout, defaults.MetadataTimeout},
		{&result.RenderTimeout, defaults.RenderTimeout},
	} {
		if *f.dst == 0 {
			*f.dst = f.def
		}
	}

	if result.Models == nil && defaults.Models != nil {
		result.Models = make(map[string]string, len(defaults.Models))
		for k, v := range defaults.Models {
			result.Models[k] = v
		}
	}
	if len(result.Sections) == 0 {
		result.Sections = append([]string(nil), defaults.Sections...)
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
