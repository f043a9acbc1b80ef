// Package config resolves server configuration from defaults, an
// optional config file, and KNEEZ_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything the serve command needs.
type Config struct {
	ListenAddr  string
	MetricsAddr string
	LogLevel    string

	// TreesDir layers extra tree definitions over the embedded default.
	TreesDir string

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	// PostgresDSN enables durable conversation storage when set.
	PostgresDSN string

	Anthropic struct {
		APIKey string
		Model  string
	}

	// SessionTTL is the Redis session expiry in seconds, 0 keeps sessions
	// until deleted.
	SessionTTL int
}

// Load reads configuration. file may be empty, in which case only
// defaults and environment variables apply.
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("trees_dir", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("session_ttl", 0)

	v.SetEnvPrefix("KNEEZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		ListenAddr:  v.GetString("listen_addr"),
		MetricsAddr: v.GetString("metrics_addr"),
		LogLevel:    v.GetString("log_level"),
		TreesDir:    v.GetString("trees_dir"),
		PostgresDSN: v.GetString("postgres_dsn"),
		SessionTTL:  v.GetInt("session_ttl"),
	}
	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")
	cfg.Anthropic.APIKey = v.GetString("anthropic.api_key")
	cfg.Anthropic.Model = v.GetString("anthropic.model")

	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("listen_addr must not be empty")
	}
	return cfg, nil
}
