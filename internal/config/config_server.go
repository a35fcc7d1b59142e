package config

import (
	"fmt"
	"time"
)

// ServerConfig is the server-specific view assembled from
// [StructuredConfig], with defaults applied for optional fields.
type ServerConfig struct {
	// App contains token issuing settings.
	App App
	// Storage contains the database settings.
	Storage Storage
	// Server contains the listen address and request timeout.
	Server Server
}

// GetServerConfig builds and validates a server config view from the merged
// structured configuration (env + flags + JSON).
func GetServerConfig() (*ServerConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	serverCfg := &ServerConfig{
		App:     cfg.App,
		Storage: cfg.Storage,
		Server:  cfg.Server,
	}
	serverCfg.applyDefaults()

	return serverCfg, serverCfg.validate()
}

func (c *ServerConfig) applyDefaults() {
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = "localhost:8080"
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 30 * time.Second
	}
	if c.App.TokenIssuer == "" {
		c.App.TokenIssuer = "pack-sync"
	}
	if c.App.TokenDuration <= 0 {
		c.App.TokenDuration = 24 * time.Hour
	}
}

func (c *ServerConfig) validate() error {
	if c.Storage.DB.DSN == "" {
		return ErrNoDatabaseDSN
	}
	if c.App.TokenSignKey == "" {
		return ErrNoTokenSignKey
	}

	return nil
}
