// Package config loads the optional got configuration file.
//
// The file is TOML and every key is optional:
//
//	log_level = "debug"
//
//	[engine]
//	comparison = "approx"
//
//	[feedback]
//	max_paths = 64
//
//	[cache]
//	backend = "redis"
//	ttl = "24h"
//
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[metrics]
//	textfile = "/var/lib/node_exporter/got.prom"
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/worldmaking/gotlib/pkg/cache"
	"github.com/worldmaking/gotlib/pkg/graph"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "GOT_CONFIG"

const appName = "got"

// Config is the decoded configuration file.
type Config struct {
	LogLevel string   `toml:"log_level"`
	Engine   Engine   `toml:"engine"`
	Feedback Feedback `toml:"feedback"`
	Cache    Cache    `toml:"cache"`
	Metrics  Metrics  `toml:"metrics"`
}

// Engine configures the apply engine.
type Engine struct {
	// Comparison is "exact" or "approx".
	Comparison string `toml:"comparison"`
}

// Feedback configures the cycle finder.
type Feedback struct {
	// MaxPaths caps the loops reported per search. Zero means no cap.
	MaxPaths int `toml:"max_paths"`
}

// Cache selects the snapshot backend.
type Cache struct {
	Backend string        `toml:"backend"`
	Dir     string        `toml:"dir"`
	TTL     time.Duration `toml:"ttl"`
	Redis   Redis         `toml:"redis"`
	Mongo   Mongo         `toml:"mongo"`
}

type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type Mongo struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Metrics configures the Prometheus textfile written when a command exits.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LogLevel: "info",
		Engine:   Engine{Comparison: "exact"},
		Cache: Cache{
			Backend: cache.BackendFile,
			Redis:   Redis{Addr: "localhost:6379"},
			Mongo:   Mongo{URI: "mongodb://localhost:27017", Database: appName, Collection: "snapshots"},
		},
	}
}

// Path resolves the config file location: explicit, then $GOT_CONFIG,
// then $XDG_CONFIG_HOME/got/config.toml (~/.config/got/config.toml).
func Path(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the file at path over the defaults. A missing file is not an
// error unless the path was given explicitly. Unknown keys are rejected.
func Load(explicit string) (Config, error) {
	cfg := Default()
	path, err := Path(explicit)
	if err != nil {
		return cfg, fmt.Errorf("locate config: %w", err)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) && explicit == "" {
		return Default(), nil
	}
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return cfg, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects unknown enum values and negative limits.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, ok := graph.ParseComparison(c.Engine.Comparison); !ok {
		return fmt.Errorf("engine.comparison: want exact or approx, got %q", c.Engine.Comparison)
	}
	if c.Feedback.MaxPaths < 0 {
		return fmt.Errorf("feedback.max_paths: must not be negative")
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendNone, cache.BackendRedis, cache.BackendMongo:
	default:
		return fmt.Errorf("cache.backend: want file, none, redis or mongo, got %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl: must not be negative")
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Comparison returns the configured property comparison mode.
func (c Config) Comparison() graph.Comparison {
	mode, _ := graph.ParseComparison(c.Engine.Comparison)
	return mode
}

// CacheOptions converts the [cache] table for cache.Open. defaultDir fills
// an empty file cache directory.
func (c Config) CacheOptions(defaultDir string) cache.Options {
	dir := c.Cache.Dir
	if dir == "" {
		dir = defaultDir
	}
	return cache.Options{
		Backend: c.Cache.Backend,
		Dir:     dir,
		Redis: cache.RedisOptions{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
		},
		Mongo: cache.MongoOptions{
			URI:        c.Cache.Mongo.URI,
			Database:   c.Cache.Mongo.Database,
			Collection: c.Cache.Mongo.Collection,
		},
	}
}

type ctxKey struct{}

// WithConfig attaches cfg to ctx.
func WithConfig(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the config attached by WithConfig, or Default.
func FromContext(ctx context.Context) Config {
	if cfg, ok := ctx.Value(ctxKey{}).(Config); ok {
		return cfg
	}
	return Default()
}
