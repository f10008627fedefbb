package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable of the engine.
type Config struct {
	// Category is the top-level tree key the navigator walks first.
	Category string `mapstructure:"category"`
	// Table overrides the derived "<category>_table" key when set.
	Table string `mapstructure:"table"`

	// OutDir relocates CSV exports; empty keeps them next to inputs.
	OutDir string `mapstructure:"out_dir"`

	// Workers bounds batch conversion concurrency.
	Workers int `mapstructure:"workers"`

	// ListenAddr is the preview server's zmq endpoint.
	ListenAddr string `mapstructure:"listen_addr"`
	// MetricsAddr is the Prometheus HTTP listen address.
	MetricsAddr string `mapstructure:"metrics_addr"`

	// CacheSize caps the preview server's materialized-table cache.
	CacheSize int `mapstructure:"cache_size"`
	// CacheTTL expires cached tables.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Load reads configuration. An empty path means defaults plus
// environment only; a named file that does not exist is an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("category", "spec")
	v.SetDefault("table", "")
	v.SetDefault("out_dir", "")
	v.SetDefault("workers", 4)
	v.SetDefault("listen_addr", "tcp://127.0.0.1:5555")
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("cache_size", 16)
	v.SetDefault("cache_ttl", 5*time.Minute)

	v.SetEnvPrefix("SPECTABLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if errors.As(err, new(*fs.PathError)) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &cfg, nil
}
