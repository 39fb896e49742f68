// Package config defines the runtime configuration of the cache front.
package config

import "time"

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultStore is the cache store used when none is configured.
	DefaultStore = "sqlite"

	// DefaultSQLitePath is where the sqlite store keeps its database.
	DefaultSQLitePath = "data/flashlingo-cache.db"

	// DefaultDatabaseURL is empty; must be provided via flag or environment
	// when the postgres store is selected.
	DefaultDatabaseURL = ""

	// DefaultUpstreamTimeout bounds a single upstream round trip.
	DefaultUpstreamTimeout = 30 * time.Second

	// DefaultMaxConns caps the postgres pool.
	DefaultMaxConns = 10
)

// Store names accepted by the store option.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// StoreConfig selects and locates the cache store.
type StoreConfig struct {
	Store       string `mapstructure:"store" validate:"required,oneof=memory sqlite postgres"`
	DatabaseURL string `mapstructure:"database_url" validate:"required_if=Store postgres"`
	SQLitePath  string `mapstructure:"sqlite_path" validate:"required_if=Store sqlite"`
	MaxConns    int32  `mapstructure:"max_conns" validate:"gte=0"`
}

// Config holds everything needed to run the cache front.
type Config struct {
	StoreConfig `mapstructure:",squash"`

	// Origin is the public origin clients load the app from.
	Origin string `mapstructure:"origin" validate:"required,url"`
	// Upstream is the static host the web build is served from.
	Upstream string `mapstructure:"upstream" validate:"required,url"`
	// Manifest is a JSON manifest or a generated worker script.
	Manifest string `mapstructure:"manifest" validate:"required"`
	// CoreShell overrides the core shell list of the build.
	CoreShell []string `mapstructure:"core_shell" validate:"omitempty,dive,required"`

	Port                string        `mapstructure:"port" validate:"required,numeric"`
	ControlToken        string        `mapstructure:"control_token"`
	PrefetchConcurrency int           `mapstructure:"prefetch_concurrency" validate:"gte=0,lte=64"`
	UpstreamTimeout     time.Duration `mapstructure:"upstream_timeout" validate:"gte=0"`

	// HoldActivation keeps a reloaded build waiting until a skipWaiting
	// control message arrives.
	HoldActivation bool `mapstructure:"hold_activation"`
}
