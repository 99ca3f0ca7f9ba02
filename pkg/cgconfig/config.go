// Package cgconfig loads runtime configuration from CODEGRAPH_* environment
// variables, with an optional YAML file providing lower-priority defaults.
// It covers the handful of knobs the graph store, algorithms, and export
// layers actually read (data directory, schema version, traversal depth
// ceiling, export size guardrails, max source file size, and the
// front-end include-private / include-tests filters).
//
// Example Usage:
//
//	cfg := cgconfig.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//	g, err := codegraph.Open(cfg.DataDir)
package cgconfig

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every CODEGRAPH_* setting. The zero value is not the
// default configuration: LoadFromEnv with no environment variables set
// returns the built-in defaults (schema version 1, traversal depth 64,
// and so on).
type Config struct {
	// DataDir is the directory Badger persists the graph store to.
	// CODEGRAPH_DATA_DIR. Empty means in-memory.
	DataDir string `yaml:"data_dir"`

	// SchemaVersion is the on-disk schema version Open expects.
	// CODEGRAPH_SCHEMA_VERSION.
	SchemaVersion int `yaml:"schema_version"`

	// MaxTraversalDepth is the BFS depth the CLI's `algo bfs` command uses
	// when --max-depth is 0. CODEGRAPH_MAX_TRAVERSAL_DEPTH.
	MaxTraversalDepth int `yaml:"max_traversal_depth"`

	// ExportSizeWarn is the combined node+edge count above which an export
	// logs a warning but proceeds. CODEGRAPH_EXPORT_SIZE_WARN.
	ExportSizeWarn int `yaml:"export_size_warn"`

	// ExportSizeFail is the combined node+edge count above which an export
	// refuses with ErrExportTooLarge. CODEGRAPH_EXPORT_SIZE_FAIL.
	ExportSizeFail int `yaml:"export_size_fail"`

	// MaxFileSize is the byte ceiling a front-end should refuse source
	// files above, surfacing a file-too-large error.
	// CODEGRAPH_MAX_FILE_SIZE.
	MaxFileSize int64 `yaml:"max_file_size"`

	// IncludePrivate and IncludeTests are front-end filters; the core
	// stores whatever the front-end hands it.
	// CODEGRAPH_INCLUDE_PRIVATE, CODEGRAPH_INCLUDE_TESTS.
	IncludePrivate bool `yaml:"include_private"`
	IncludeTests   bool `yaml:"include_tests"`
}

// defaults returns the baseline Config before any YAML or environment
// overlay is applied.
func defaults() Config {
	return Config{
		DataDir:           "",
		SchemaVersion:     1,
		MaxTraversalDepth: 64,
		ExportSizeWarn:    100_000,
		ExportSizeFail:    1_000_000,
		MaxFileSize:       5 * 1024 * 1024,
		IncludePrivate:    true,
		IncludeTests:      true,
	}
}

// LoadFromEnv loads configuration from CODEGRAPH_* environment variables,
// falling back to built-in defaults for anything unset. Every field has a
// usable default, so LoadFromEnv never needs an environment to be
// pre-populated.
func LoadFromEnv() *Config {
	c := defaults()

	c.DataDir = getEnv("CODEGRAPH_DATA_DIR", c.DataDir)
	c.SchemaVersion = getEnvInt("CODEGRAPH_SCHEMA_VERSION", c.SchemaVersion)
	c.MaxTraversalDepth = getEnvInt("CODEGRAPH_MAX_TRAVERSAL_DEPTH", c.MaxTraversalDepth)
	c.ExportSizeWarn = getEnvInt("CODEGRAPH_EXPORT_SIZE_WARN", c.ExportSizeWarn)
	c.ExportSizeFail = getEnvInt("CODEGRAPH_EXPORT_SIZE_FAIL", c.ExportSizeFail)
	c.MaxFileSize = getEnvInt64("CODEGRAPH_MAX_FILE_SIZE", c.MaxFileSize)
	c.IncludePrivate = getEnvBool("CODEGRAPH_INCLUDE_PRIVATE", c.IncludePrivate)
	c.IncludeTests = getEnvBool("CODEGRAPH_INCLUDE_TESTS", c.IncludeTests)

	return &c
}

// LoadWithYAMLOverlay reads yamlPath (if it exists) as a lower-priority
// layer underneath the environment: YAML values fill in fields the
// environment left at their zero value, and any CODEGRAPH_* variable that
// is actually set always wins. A missing yamlPath is not an error; it is
// equivalent to an empty overlay.
func LoadWithYAMLOverlay(yamlPath string) (*Config, error) {
	base := defaults()

	data, err := os.ReadFile(yamlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return LoadFromEnv(), nil
		}
		return nil, fmt.Errorf("cgconfig: reading %s: %w", yamlPath, err)
	}
	if err := yaml.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("cgconfig: parsing %s: %w", yamlPath, err)
	}

	c := LoadFromEnv()
	applyEnvOverride(&c.DataDir, "CODEGRAPH_DATA_DIR", base.DataDir)
	applyEnvOverrideInt(&c.SchemaVersion, "CODEGRAPH_SCHEMA_VERSION", base.SchemaVersion)
	applyEnvOverrideInt(&c.MaxTraversalDepth, "CODEGRAPH_MAX_TRAVERSAL_DEPTH", base.MaxTraversalDepth)
	applyEnvOverrideInt(&c.ExportSizeWarn, "CODEGRAPH_EXPORT_SIZE_WARN", base.ExportSizeWarn)
	applyEnvOverrideInt(&c.ExportSizeFail, "CODEGRAPH_EXPORT_SIZE_FAIL", base.ExportSizeFail)
	applyEnvOverrideInt64(&c.MaxFileSize, "CODEGRAPH_MAX_FILE_SIZE", base.MaxFileSize)
	if os.Getenv("CODEGRAPH_INCLUDE_PRIVATE") == "" {
		c.IncludePrivate = base.IncludePrivate
	}
	if os.Getenv("CODEGRAPH_INCLUDE_TESTS") == "" {
		c.IncludeTests = base.IncludeTests
	}

	return c, nil
}

// applyEnvOverride lets a YAML value fill a field only when the
// corresponding environment variable was never set.
func applyEnvOverride(field *string, envKey, yamlVal string) {
	if os.Getenv(envKey) == "" && yamlVal != "" {
		*field = yamlVal
	}
}

func applyEnvOverrideInt(field *int, envKey string, yamlVal int) {
	if os.Getenv(envKey) == "" && yamlVal != 0 {
		*field = yamlVal
	}
}

func applyEnvOverrideInt64(field *int64, envKey string, yamlVal int64) {
	if os.Getenv(envKey) == "" && yamlVal != 0 {
		*field = yamlVal
	}
}

// Validate checks the configuration for values that would break the core
// at runtime. Call it after LoadFromEnv/LoadWithYAMLOverlay and before
// using the Config.
func (c *Config) Validate() error {
	if c.SchemaVersion <= 0 {
		return fmt.Errorf("cgconfig: schema version must be positive, got %d", c.SchemaVersion)
	}
	if c.MaxTraversalDepth <= 0 {
		return fmt.Errorf("cgconfig: max traversal depth must be positive, got %d", c.MaxTraversalDepth)
	}
	if c.ExportSizeFail > 0 && c.ExportSizeWarn > c.ExportSizeFail {
		return fmt.Errorf("cgconfig: export size warn threshold (%d) exceeds fail threshold (%d)", c.ExportSizeWarn, c.ExportSizeFail)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("cgconfig: max file size must be positive, got %d", c.MaxFileSize)
	}
	return nil
}

// String returns a representation safe for logging; there are no secrets
// in this configuration, so every field is included.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{DataDir: %q, SchemaVersion: %d, MaxTraversalDepth: %d, ExportSizeWarn: %d, ExportSizeFail: %d, MaxFileSize: %d, IncludePrivate: %v, IncludeTests: %v}",
		c.DataDir, c.SchemaVersion, c.MaxTraversalDepth, c.ExportSizeWarn, c.ExportSizeFail, c.MaxFileSize, c.IncludePrivate, c.IncludeTests,
	)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return defaultVal
}
