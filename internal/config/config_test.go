package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/worldmaking/gotlib/pkg/cache"
	"github.com/worldmaking/gotlib/pkg/graph"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[engine]
comparison = "approx"

[feedback]
max_paths = 8

[cache]
backend = "redis"
ttl = "36h"

[cache.redis]
addr = "cache:6379"
db = 2

[metrics]
textfile = "got.prom"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Level() != log.DebugLevel {
		t.Errorf("Level() = %v", cfg.Level())
	}
	if cfg.Comparison() != graph.CompareApprox {
		t.Errorf("Comparison() = %v", cfg.Comparison())
	}
	if cfg.Feedback.MaxPaths != 8 {
		t.Errorf("MaxPaths = %d", cfg.Feedback.MaxPaths)
	}
	if cfg.Cache.TTL != 36*time.Hour {
		t.Errorf("TTL = %v", cfg.Cache.TTL)
	}
	if cfg.Metrics.Textfile != "got.prom" {
		t.Errorf("Textfile = %q", cfg.Metrics.Textfile)
	}

	opts := cfg.CacheOptions("/tmp/got")
	if opts.Backend != cache.BackendRedis || opts.Redis.Addr != "cache:6379" || opts.Redis.DB != 2 {
		t.Errorf("CacheOptions() = %+v", opts)
	}
	if opts.Mongo.Database != "got" {
		t.Errorf("unset tables should keep defaults, got mongo %+v", opts.Mongo)
	}
	if opts.Dir != "/tmp/got" {
		t.Errorf("Dir = %q, want the default dir", opts.Dir)
	}
}

func TestLoadMissing(t *testing.T) {
	t.Setenv(EnvPath, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("absent default file should not fail: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("an explicit missing file should fail")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "log_level = ", "load config"},
		{"unknown key", "[engine]\nmode = \"fast\"", "unknown keys: engine.mode"},
		{"bad level", `log_level = "loud"`, "log_level"},
		{"bad comparison", "[engine]\ncomparison = \"fuzzy\"", "engine.comparison"},
		{"bad backend", "[cache]\nbackend = \"s3\"", "cache.backend"},
		{"negative max paths", "[feedback]\nmax_paths = -1", "feedback.max_paths"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvPath, "/etc/got.toml")
	if p, _ := Path("mine.toml"); p != "mine.toml" {
		t.Errorf("explicit path = %q", p)
	}
	if p, _ := Path(""); p != "/etc/got.toml" {
		t.Errorf("env path = %q", p)
	}

	t.Setenv(EnvPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if p, _ := Path(""); p != filepath.Join("/xdg", "got", "config.toml") {
		t.Errorf("xdg path = %q", p)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()) != Default() {
		t.Error("bare context should yield defaults")
	}
	cfg := Default()
	cfg.Feedback.MaxPaths = 3
	if got := FromContext(WithConfig(context.Background(), cfg)); got.Feedback.MaxPaths != 3 {
		t.Errorf("FromContext() = %+v", got)
	}
}
