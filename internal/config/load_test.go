package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmonBrollo/FlashLingo/internal/config"
)

func required() map[string]any {
	return map[string]any{
		"origin":   "https://flashlingo.example",
		"upstream": "http://static.internal:9000",
		"manifest": "build/web/flutter_service_worker.js",
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", required())
	require.NoError(t, err)

	assert.Equal(t, config.DefaultPort, cfg.Port)
	assert.Equal(t, config.StoreSQLite, cfg.Store)
	assert.Equal(t, config.DefaultSQLitePath, cfg.SQLitePath)
	assert.Equal(t, config.DefaultUpstreamTimeout, cfg.UpstreamTimeout)
	assert.False(t, cfg.HoldActivation)
}

func TestLoad_FileThenOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	yaml := `origin: https://flashlingo.example
upstream: http://static.internal:9000
manifest: manifest.json
port: "9090"
store: memory
upstream_timeout: 5s
hold_activation: true
core_shell:
  - index.html
  - main.dart.js
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.Load(path, map[string]any{"port": "7070"})
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
	assert.True(t, cfg.HoldActivation)
	assert.Equal(t, []string{"index.html", "main.dart.js"}, cfg.CoreShell)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		override map[string]any
	}{
		{"unknown store", map[string]any{"store": "redis"}},
		{"postgres without url", map[string]any{"store": "postgres"}},
		{"bad origin", map[string]any{"origin": "not a url"}},
		{"bad port", map[string]any{"port": "http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overrides := required()
			for k, v := range tt.override {
				overrides[k] = v
			}
			_, err := config.Load("", overrides)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), required())
	assert.Error(t, err)
}

func TestLoadStore_IgnoresServeFields(t *testing.T) {
	cfg, err := config.LoadStore("", map[string]any{
		"store":        "postgres",
		"database_url": "postgres://cache@localhost:5432/cache",
	})
	require.NoError(t, err)

	assert.Equal(t, config.StorePostgres, cfg.Store)
	assert.Equal(t, "postgres://cache@localhost:5432/cache", cfg.DatabaseURL)
	assert.EqualValues(t, config.DefaultMaxConns, cfg.MaxConns)
}
