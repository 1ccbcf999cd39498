// Package config loads runtime settings: defaults first, then an
// optional YAML file, then ROMCODEX_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting for the server.
type Config struct {
	Port   string `mapstructure:"port"`
	DBPath string `mapstructure:"db_path"`

	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`

	SearchCacheTTL   time.Duration `mapstructure:"search_cache_ttl"`
	SnapshotCacheTTL time.Duration `mapstructure:"snapshot_cache_ttl"`
	OptionsCacheTTL  time.Duration `mapstructure:"options_cache_ttl"`
	ImageCacheTTL    time.Duration `mapstructure:"image_cache_ttl"`

	AllowedImageHosts []string `mapstructure:"allowed_image_hosts"`
	AllowedOrigins    []string `mapstructure:"allowed_origins"`

	LogLevel string `mapstructure:"log_level"`
}

// Load builds a Config. configPath may be empty, in which case only
// defaults and environment variables apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "./romcodex.db")
	v.SetDefault("jwt_secret", "dev-secret-change-me")
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("search_cache_ttl", 10*time.Minute)
	v.SetDefault("snapshot_cache_ttl", 30*time.Minute)
	v.SetDefault("options_cache_ttl", 30*time.Minute)
	v.SetDefault("image_cache_ttl", 30*time.Minute)
	v.SetDefault("allowed_image_hosts", []string{})
	v.SetDefault("allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("ROMCODEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
