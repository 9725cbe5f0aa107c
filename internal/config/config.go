// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

// Package config loads authd configuration from a YAML file overlaid by
// command-line flags.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/robskinney/remix-auth-example/internal/auth"
	"github.com/robskinney/remix-auth-example/internal/xdg"
)

// Session backends.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// EnvironmentProduction turns on Secure cookies unless cookie.secure is set.
const EnvironmentProduction = "production"

// Config is the resolved authd configuration.
type Config struct {
	Environment    string  `koanf:"environment"`
	DatabaseURL    string  `koanf:"database_url"`
	SessionBackend string  `koanf:"session_backend"`
	Redis          Redis   `koanf:"redis"`
	Cookie         Cookie  `koanf:"cookie"`
	Hasher         Hasher  `koanf:"hasher"`
	Sweep          Sweep   `koanf:"sweep"`
	Log            Log     `koanf:"log"`
	Metrics        Metrics `koanf:"metrics"`
}

// Redis configures the redis session backend.
type Redis struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// Cookie configures the session cookie.
type Cookie struct {
	Secure bool `koanf:"secure"`
}

// Hasher configures argon2id cost and the number of concurrent hashes.
type Hasher struct {
	Memory      uint32 `koanf:"memory"`
	Time        uint32 `koanf:"time"`
	Threads     uint8  `koanf:"threads"`
	Concurrency int    `koanf:"concurrency"`
}

// Params returns the argon2id parameters.
func (h Hasher) Params() auth.Argon2Params {
	return auth.Argon2Params{Memory: h.Memory, Time: h.Time, Threads: h.Threads}
}

// Sweep configures the expired-session sweeper.
type Sweep struct {
	Schedule string `koanf:"schedule"`
}

// Log configures structured logging.
type Log struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// Metrics configures the metrics and health endpoint.
type Metrics struct {
	// Addr is the listen address. Empty disables the endpoint.
	Addr string `koanf:"addr"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() map[string]any {
	params := auth.DefaultArgon2Params()
	return map[string]any{
		"environment":        "development",
		"session_backend":    BackendPostgres,
		"redis.addr":         "localhost:6379",
		"redis.db":           0,
		"redis.prefix":       "remix-auth:session:",
		"hasher.memory":      params.Memory,
		"hasher.time":        params.Time,
		"hasher.threads":     params.Threads,
		"hasher.concurrency": 0,
		"sweep.schedule":     auth.DefaultSweepSchedule,
		"log.format":         "json",
		"log.level":          "info",
		"metrics.addr":       "127.0.0.1:9100",
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/remix-auth/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigDir(), "config.yaml")
}

// Load reads configuration in increasing precedence: defaults, the YAML file
// at path, the DATABASE_URL environment variable, then flags that were set
// explicitly. An empty path reads DefaultPath if it exists. An explicit path
// that does not exist is an error.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, value := range Defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").With("key", key).Wrap(err)
		}
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "file").
				With("path", path).
				Wrap(err)
		}
	}

	if url := os.Getenv("DATABASE_URL"); url != "" && k.String("database_url") == "" {
		if err := k.Set("database_url", url); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	if !k.Exists("cookie.secure") {
		cfg.Cookie.Secure = cfg.Environment == EnvironmentProduction
	}
	return &cfg, nil
}

// flagKey maps a flag name such as "log-format" or "database-url" to its
// config key.
func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

var flagKeys = map[string]string{
	"log-format":       "log.format",
	"log-level":        "log.level",
	"metrics-addr":     "metrics.addr",
	"redis-addr":       "redis.addr",
	"sweep-schedule":   "sweep.schedule",
	"cookie-secure":    "cookie.secure",
	"hash-concurrency": "hasher.concurrency",
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			With("key", "database_url").
			Errorf("database_url is required (set it in the config file or DATABASE_URL)")
	}
	switch c.SessionBackend {
	case BackendPostgres:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return oops.Code("CONFIG_INVALID").With("key", "redis.addr").Errorf("redis.addr is required for the redis backend")
		}
	default:
		return oops.Code("CONFIG_INVALID").
			With("key", "session_backend").
			Errorf("session_backend must be %q or %q, got %q", BackendPostgres, BackendRedis, c.SessionBackend)
	}
	if err := c.Hasher.Params().Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").With("key", "hasher").Wrap(err)
	}
	if c.Hasher.Concurrency < 0 {
		return oops.Code("CONFIG_INVALID").With("key", "hasher.concurrency").Errorf("hasher.concurrency must not be negative")
	}
	if _, err := cron.ParseStandard(c.Sweep.Schedule); err != nil {
		return oops.Code("CONFIG_INVALID").With("key", "sweep.schedule").Wrap(err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("key", "log.format").
			Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	return nil
}
