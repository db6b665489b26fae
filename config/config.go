// Package config provides configuration loading for lexbase.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/caselode/lexbase/ingestion"
)

// DefaultTenantID is used when neither config nor flags name a tenant.
const DefaultTenantID = "government-canada"

// Config represents the complete lexbase configuration.
type Config struct {
	Store      StoreConfig                 `yaml:"store"`
	Ingest     IngestConfig                `yaml:"ingest"`
	Classifier ingestion.ClassifierWeights `yaml:"classifier"`
}

// StoreConfig configures the entity store.
type StoreConfig struct {
	// Path is the BadgerDB directory. Ignored when InMemory is true.
	Path string `yaml:"path"`
	// InMemory runs the store without persistence; useful for tests
	// and dry runs.
	InMemory bool `yaml:"inMemory"`
}

// IngestConfig configures pipeline tuning.
type IngestConfig struct {
	// TenantID scopes written entities when the CLI does not override it.
	TenantID string `yaml:"tenantId"`
	// BatchSize is the number of entities written per store batch.
	BatchSize int `yaml:"batchSize"`
	// BatchDelay is the pacing delay between store batches.
	BatchDelay time.Duration `yaml:"batchDelay"`
	// MaxRetries bounds write attempts per item on transient failures.
	MaxRetries int `yaml:"maxRetries"`
	// FilterRelevantOnly drops not-relevant entities before writing.
	FilterRelevantOnly bool `yaml:"filterRelevantOnly"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: "lexbase.db",
		},
		Ingest: IngestConfig{
			TenantID:   DefaultTenantID,
			BatchSize:  10,
			BatchDelay: 200 * time.Millisecond,
			MaxRetries: 3,
		},
		Classifier: ingestion.DefaultClassifierWeights(),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required for a persistent store")
	}
	if c.Ingest.BatchSize < 1 {
		return fmt.Errorf("ingest.batchSize must be at least 1")
	}
	if c.Ingest.MaxRetries < 1 {
		return fmt.Errorf("ingest.maxRetries must be at least 1")
	}
	if c.Classifier.RelevanceThreshold <= 0 || c.Classifier.RelevanceThreshold > 1 {
		return fmt.Errorf("classifier.relevanceThreshold must be in (0, 1]")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file layered over the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Load returns the configuration at path, or the defaults when path is
// empty or the file does not exist.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	config, err := LoadFromFile(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return config, err
}

// SaveToFile writes the configuration as YAML, creating parent
// directories as needed.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
