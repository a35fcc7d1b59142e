package config

import (
	"fmt"
	"time"
)

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// BaseURL is the authoritative store's base URL.
	BaseURL string
	// RequestTimeout is the bound on a single submission attempt.
	RequestTimeout time.Duration
	// PingInterval is the connectivity probe period.
	PingInterval time.Duration
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// Path is the SQLite file backing the durable queue and snapshot cache.
	Path string
}

// ClientWorkers contains the sync driver's scheduling and retry settings.
type ClientWorkers struct {
	// SyncInterval defines how often the background sync job drains.
	SyncInterval time.Duration
	// MaxAttempts bounds silent transient retries per operation.
	MaxAttempts int
	// BackoffBase is the initial retry delay.
	BackoffBase time.Duration
	// BackoffCap is the maximum retry delay.
	BackoffCap time.Duration
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig]. Command-line overrides come from the client CLI, so
// only environment variables and the JSON file are consulted here.
type ClientConfig struct {
	// Adapter contains client transport settings.
	Adapter ClientAdapter
	// Storage contains local storage settings.
	Storage ClientStorage
	// Workers contains background job settings.
	Workers ClientWorkers
}

// GetClientConfig builds and validates a client-specific config view from
// the merged structured configuration (env + JSON; CLI flags are owned by
// the cobra commands and merged by the caller).
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := newConfigBuilder().
		withEnv().
		withJSON().
		build()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		Adapter: ClientAdapter{
			BaseURL:        cfg.Adapter.BaseURL,
			RequestTimeout: cfg.Adapter.RequestTimeout,
			PingInterval:   cfg.Adapter.PingInterval,
		},
		Storage: ClientStorage{
			Path: cfg.Storage.Local.Path,
		},
		Workers: ClientWorkers{
			SyncInterval: cfg.Workers.SyncInterval,
			MaxAttempts:  cfg.Workers.MaxAttempts,
			BackoffBase:  cfg.Workers.BackoffBase,
			BackoffCap:   cfg.Workers.BackoffCap,
		},
	}
	clientCfg.ApplyDefaults()

	return clientCfg, clientCfg.Validate()
}

// ApplyDefaults fills zero-valued optional fields. Exported because the
// client CLI re-applies it after merging its own flag overrides.
func (c *ClientConfig) ApplyDefaults() {
	if c.Adapter.BaseURL == "" {
		c.Adapter.BaseURL = "http://localhost:8080"
	}
	if c.Adapter.RequestTimeout <= 0 {
		c.Adapter.RequestTimeout = 15 * time.Second
	}
	if c.Adapter.PingInterval <= 0 {
		c.Adapter.PingInterval = 10 * time.Second
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "pack-sync.db"
	}
	if c.Workers.SyncInterval <= 0 {
		c.Workers.SyncInterval = 30 * time.Second
	}
	if c.Workers.MaxAttempts <= 0 {
		c.Workers.MaxAttempts = 5
	}
	if c.Workers.BackoffBase <= 0 {
		c.Workers.BackoffBase = 500 * time.Millisecond
	}
	if c.Workers.BackoffCap <= 0 {
		c.Workers.BackoffCap = 30 * time.Second
	}
}

// Validate checks the required client fields after defaults are applied.
func (c *ClientConfig) Validate() error {
	if c.Adapter.BaseURL == "" {
		return ErrNoServerBaseURL
	}
	if c.Storage.Path == "" {
		return ErrNoLocalDBPath
	}

	return nil
}
