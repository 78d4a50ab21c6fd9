// Package config loads the settings that wire a depgraph.DB together:
// where the graph is stored, which filesystem root the analyzer resolves
// imports against, and how much to log.
//
// Configuration can come from environment variables (container/CI
// friendly) or a YAML file; both produce the same Config and go through
// the same Validate() before a caller trusts them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// StorageConfig controls where and how the graph is persisted.
type StorageConfig struct {
	// Engine selects the backend: "memory" or "badger".
	Engine string `yaml:"engine"`
	// DataDir is the BadgerDB directory. Required when Engine == "badger".
	DataDir string `yaml:"data_dir"`
	// SyncWrites forces fsync after every write. Slower, more durable.
	SyncWrites bool `yaml:"sync_writes"`
}

// AnalyzerConfig controls the file-dependency analyzer's defaults.
type AnalyzerConfig struct {
	// Root is the filesystem root import targets are resolved against.
	Root string `yaml:"root"`
	// DefaultLanguage is loaded from the environment or YAML like the other
	// fields. depgraph.Open does not pass it to the analyzer, so an
	// ImportSource that omits Language is not given this value.
	DefaultLanguage string `yaml:"default_language"`
}

// LoggingConfig controls pkg/logx's verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Config is the full set of settings a depgraph.DB needs to start.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Default returns a Config suitable for local development: an in-memory
// store rooted at the working directory, info-level logging.
func Default() Config {
	return Config{
		Storage:  StorageConfig{Engine: "memory"},
		Analyzer: AnalyzerConfig{Root: ".", DefaultLanguage: "typescript"},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// LoadFromEnv builds a Config from DEPGRAPH_-prefixed environment
// variables, starting from Default() so unset variables keep their
// default value.
//
//	DEPGRAPH_STORAGE_ENGINE       memory | badger
//	DEPGRAPH_STORAGE_DATA_DIR     BadgerDB directory
//	DEPGRAPH_STORAGE_SYNC_WRITES  true | false
//	DEPGRAPH_ANALYZER_ROOT        filesystem root for import resolution
//	DEPGRAPH_ANALYZER_LANGUAGE    sets Analyzer.DefaultLanguage
//	DEPGRAPH_LOG_LEVEL            debug | info | warn | error
func LoadFromEnv() Config {
	cfg := Default()

	if v, ok := os.LookupEnv("DEPGRAPH_STORAGE_ENGINE"); ok {
		cfg.Storage.Engine = v
	}
	if v, ok := os.LookupEnv("DEPGRAPH_STORAGE_DATA_DIR"); ok {
		cfg.Storage.DataDir = v
	}
	if v, ok := os.LookupEnv("DEPGRAPH_STORAGE_SYNC_WRITES"); ok {
		cfg.Storage.SyncWrites = parseBool(v)
	}
	if v, ok := os.LookupEnv("DEPGRAPH_ANALYZER_ROOT"); ok {
		cfg.Analyzer.Root = v
	}
	if v, ok := os.LookupEnv("DEPGRAPH_ANALYZER_LANGUAGE"); ok {
		cfg.Analyzer.DefaultLanguage = v
	}
	if v, ok := os.LookupEnv("DEPGRAPH_LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	return cfg
}

// LoadFromYAML reads a Config from a YAML file at path, layered over
// Default() so an incomplete file still produces a usable Config.
func LoadFromYAML(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects a Config that Open would otherwise fail on in a less
// obvious way.
func (c Config) Validate() error {
	switch c.Storage.Engine {
	case "memory":
	case "badger":
		if c.Storage.DataDir == "" {
			return fmt.Errorf("config: storage.data_dir is required when storage.engine is %q", c.Storage.Engine)
		}
	default:
		return fmt.Errorf("config: unknown storage.engine %q (want memory or badger)", c.Storage.Engine)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logging.level %q", c.Logging.Level)
	}
	return nil
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
