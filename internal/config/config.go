package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults for the conversion run.
const (
	DefaultDBPath          = "eventstore.db"
	DefaultBatchSize       = 1000
	DefaultCommitFrequency = 5
)

// ConfigError describes an invalid run parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// Config holds the immutable parameters of one conversion run.
type Config struct {
	EventStoreURI   string `json:"eventstore_uri"`
	DBPath          string `json:"db_path"`
	BatchSize       int    `json:"batch_size"`
	CommitFrequency int    `json:"commit_frequency"` // commit every N batches
	ValidateData    bool   `json:"validate_data"`
	CreateIndexes   bool   `json:"create_indexes"`
}

// New validates the given parameters and resolves the destination
// path, creating its parent directory. Invalid values fail here, not
// mid-run.
func New(cfg Config) (Config, error) {
	if cfg.EventStoreURI == "" {
		return Config{}, &ConfigError{Field: "eventstore_uri", Reason: "is required"}
	}
	if cfg.BatchSize <= 0 {
		return Config{}, &ConfigError{Field: "batch_size", Reason: "must be positive"}
	}
	if cfg.CommitFrequency <= 0 {
		return Config{}, &ConfigError{Field: "commit_frequency", Reason: "must be positive"}
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}

	abs, err := filepath.Abs(cfg.DBPath)
	if err != nil {
		return Config{}, &ConfigError{Field: "db_path", Reason: err.Error()}
	}
	cfg.DBPath = abs

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return Config{}, &ConfigError{Field: "db_path", Reason: fmt.Sprintf("cannot create parent directory: %v", err)}
	}

	return cfg, nil
}
