// Package config loads CLI and server settings from flags, the environment
// and an optional .pipeforge.yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = ".pipeforge.yaml"

// EnvPrefix prefixes environment overrides, e.g. PIPEFORGE_SERVER_ADDR.
const EnvPrefix = "PIPEFORGE"

// Config is the full settings tree.
type Config struct {
	Document  string       `mapstructure:"document"`
	LogLevel  string       `mapstructure:"log_level"`
	LogFormat string       `mapstructure:"log_format"`
	Orbs      OrbsConfig   `mapstructure:"orbs"`
	Server    ServerConfig `mapstructure:"server"`
}

// OrbsConfig selects where imported orbs come from. Redis wins over Dir
// when both are set.
type OrbsConfig struct {
	Dir         string        `mapstructure:"dir"`
	RedisAddr   string        `mapstructure:"redis_addr"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

// ServerConfig configures `pipeforge serve`.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// LockTTL bounds how long a distributed session lock may be held.
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		Document:  ".circleci/config.yml",
		LogLevel:  "info",
		LogFormat: "text",
		Orbs: OrbsConfig{
			RedisPrefix: "pipeforge:orbs:",
			CacheTTL:    10 * time.Minute,
		},
		Server: ServerConfig{
			Addr:    ":8080",
			LockTTL: 30 * time.Second,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("document", d.Document)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("orbs.dir", d.Orbs.Dir)
	v.SetDefault("orbs.redis_addr", d.Orbs.RedisAddr)
	v.SetDefault("orbs.redis_prefix", d.Orbs.RedisPrefix)
	v.SetDefault("orbs.cache_ttl", d.Orbs.CacheTTL)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.lock_ttl", d.Server.LockTTL)
}

// Load reads file (or DefaultFile when file is empty and it exists) into v
// and decodes the result. Flags must already be bound to v.
func Load(v *viper.Viper, file string) (Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			file = DefaultFile
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config %s: %w", file, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
