package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load builds a Config from defaults, an optional YAML file, and explicit
// overrides, in increasing order of precedence. Overrides are keyed by the
// mapstructure names of Config.
func Load(file string, overrides map[string]any) (*Config, error) {
	var cfg Config
	if err := load(file, overrides, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadStore is Load for commands that only touch the cache store.
func LoadStore(file string, overrides map[string]any) (*StoreConfig, error) {
	var cfg StoreConfig
	if err := load(file, overrides, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func load(file string, overrides map[string]any, out any) error {
	v := viper.New()
	v.SetDefault("port", DefaultPort)
	v.SetDefault("store", DefaultStore)
	v.SetDefault("sqlite_path", DefaultSQLitePath)
	v.SetDefault("database_url", DefaultDatabaseURL)
	v.SetDefault("upstream_timeout", DefaultUpstreamTimeout)
	v.SetDefault("max_conns", DefaultMaxConns)

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", file, err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return validate(out)
}

func validate(cfg any) error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Errorf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %w", errors.Join(msgs...))
}
