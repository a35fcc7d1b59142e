package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigBuilder_MergePriority(t *testing.T) {
	// First source wins for non-zero fields.
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{Server: Server{HTTPAddress: "first:1111"}},
		&StructuredConfig{
			Server:  Server{HTTPAddress: "second:2222", RequestTimeout: 5 * time.Second},
			Storage: Storage{DB: DB{DSN: "postgres://second"}},
		},
	)

	cfg, err := b.build()
	require.NoError(t, err)

	assert.Equal(t, "first:1111", cfg.Server.HTTPAddress, "earlier source must win")
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout, "zero fields are filled from later sources")
	assert.Equal(t, "postgres://second", cfg.Storage.DB.DSN)
}

func TestConfigBuilder_WithEnv(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "envhost:9999")
	t.Setenv("STORAGE_DB_DATABASE_URI", "postgres://env")
	t.Setenv("WORKERS_SYNC_INTERVAL", "42s")

	cfg, err := newConfigBuilder().withEnv().build()
	require.NoError(t, err)

	assert.Equal(t, "envhost:9999", cfg.Server.HTTPAddress)
	assert.Equal(t, "postgres://env", cfg.Storage.DB.DSN)
	assert.Equal(t, 42*time.Second, cfg.Workers.SyncInterval)
}

func TestConfigBuilder_WithJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	payload := `{
		"app": {"token_sign_key": "json-key", "token_duration": 3600000000000},
		"server": {"address": "jsonhost:8081"},
		"adapter": {"base_url": "http://json:8080"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: path})

	cfg, err := b.withJSON().build()
	require.NoError(t, err)

	assert.Equal(t, "json-key", cfg.App.TokenSignKey)
	assert.Equal(t, time.Hour, cfg.App.TokenDuration)
	assert.Equal(t, "jsonhost:8081", cfg.Server.HTTPAddress)
	assert.Equal(t, "http://json:8080", cfg.Adapter.BaseURL)
}

func TestConfigBuilder_WithJSON_MissingFile(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: "/does/not/exist.json"})

	_, err := b.withJSON().build()
	require.Error(t, err)
}

func TestClientConfig_Defaults(t *testing.T) {
	cfg := &ClientConfig{}
	cfg.ApplyDefaults()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:8080", cfg.Adapter.BaseURL)
	assert.Equal(t, "pack-sync.db", cfg.Storage.Path)
	assert.Equal(t, 5, cfg.Workers.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Workers.BackoffCap)
}

func TestServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServerConfig
		wantErr error
	}{
		{
			name:    "missing DSN",
			cfg:     ServerConfig{App: App{TokenSignKey: "k"}},
			wantErr: ErrNoDatabaseDSN,
		},
		{
			name:    "missing sign key",
			cfg:     ServerConfig{Storage: Storage{DB: DB{DSN: "postgres://x"}}},
			wantErr: ErrNoTokenSignKey,
		},
		{
			name: "valid",
			cfg: ServerConfig{
				App:     App{TokenSignKey: "k"},
				Storage: Storage{DB: DB{DSN: "postgres://x"}},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.validate()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
