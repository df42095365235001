package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/worldmaking/gotlib/internal/config"
	"github.com/worldmaking/gotlib/pkg/buildinfo"
	"github.com/worldmaking/gotlib/pkg/cache"
	"github.com/worldmaking/gotlib/pkg/feedback"
	"github.com/worldmaking/gotlib/pkg/observability"
	"github.com/worldmaking/gotlib/pkg/observability/prom"
	"github.com/worldmaking/gotlib/pkg/ot"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "got"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded by the root command before any subcommand runs.
	Config config.Config

	verbose     bool
	configPath  string
	metricsFile string
	registry    *prometheus.Registry
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetVerbose forces debug logging regardless of the configured level.
func (c *CLI) SetVerbose(v bool) {
	c.verbose = v
	if v {
		c.SetLogLevel(LogDebug)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "got edits patch graphs with invertible, rebasable deltas",
		Long: `got applies, inverts and rebases deltas against patch graphs of modules,
ports and arcs, and finds feedback loops between modules.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.flushMetrics()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/got/config.toml)")
	root.PersistentFlags().StringVar(&c.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.applyCommand())
	root.AddCommand(c.invertCommand())
	root.AddCommand(c.rebaseCommand())
	root.AddCommand(c.mergeCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.feedbackCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// setup loads the config file and installs the metrics hooks. Verbose
// mode wins over the configured log level.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	if !c.verbose {
		c.SetLogLevel(cfg.Level())
	}

	if c.metricsFile == "" {
		c.metricsFile = cfg.Metrics.Textfile
	}
	if c.metricsFile != "" && c.registry == nil {
		c.registry = prometheus.NewRegistry()
		prom.New(c.registry).Install()
	}

	ctx := withLogger(cmd.Context(), c.Logger)
	cmd.SetContext(config.WithConfig(ctx, cfg))
	return nil
}

func (c *CLI) flushMetrics() error {
	if c.registry == nil {
		return nil
	}
	defer observability.Reset()
	if err := prometheus.WriteToTextfile(c.metricsFile, c.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	c.Logger.Debug("metrics written", "file", c.metricsFile)
	return nil
}

// =============================================================================
// Component Factories
// =============================================================================

func (c *CLI) engine() *ot.Engine {
	return ot.NewEngine(ot.Options{Logger: c.Logger, Comparison: c.Config.Comparison()})
}

func (c *CLI) finder(maxPaths int) *feedback.Finder {
	if maxPaths == 0 {
		maxPaths = c.Config.Feedback.MaxPaths
	}
	return feedback.NewFinder(feedback.Options{Logger: c.Logger, MaxPaths: maxPaths})
}

// openCache opens the configured backend, or the null cache when noCache
// is set.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		dir = ""
	}
	opts := c.Config.CacheOptions(dir)
	if opts.Backend == cache.BackendFile && opts.Dir == "" {
		return cache.NewNullCache(), nil
	}
	return cache.Open(ctx, opts)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/got/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
