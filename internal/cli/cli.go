// Package cli implements the accviz command-line interface.
//
// This package provides commands for computing similarity matrices from
// presence tables, building hierarchies, computing placements, and rendering
// concentric-arc diagrams. The CLI is built using cobra and supports verbose
// logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - similarity: Compute a similarity matrix from presence tables
//   - cluster: Build a hierarchy from a similarity matrix
//   - place: Compute entity coordinates from two hierarchies
//   - render: Generate SVG, PNG, JSON, or DOT output
//   - steps: Walk through the placement step by step
//   - serve: Run the HTTP API
//   - cache: Manage the pipeline result cache
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/accviz/accviz/pkg/buildinfo"
	"github.com/accviz/accviz/pkg/cache"
	"github.com/accviz/accviz/pkg/config"
	"github.com/accviz/accviz/pkg/pipeline"
	"github.com/accviz/accviz/pkg/simmat"
)

// appName is the application name used for directories and display.
const appName = "accviz"

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

	// ConfigPath overrides the default config file location.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "accviz",
		Short:        "Accviz draws concentric-arc diagrams from paired hierarchies",
		Long:         `Accviz places entities on concentric arcs so that angular separation reflects one similarity structure and radial distance reflects another, making it easy to compare two clusterings of the same entities at a glance.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: "+appName+"/config.toml in the user config dir)")

	// Register all subcommands
	root.AddCommand(c.similarityCommand())
	root.AddCommand(c.clusterCommand())
	root.AddCommand(c.placeCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.stepsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the config file, honoring the --config override.
func (c *CLI) loadConfig() (config.Config, error) {
	path := c.ConfigPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

// applyConfigDefaults fills pipeline options the user left unset from the
// config file. Explicit flags always win; the spokes flag needs a Changed
// check because false is both its zero value and a valid explicit choice.
func (c *CLI) applyConfigDefaults(cmd *cobra.Command, opts *pipeline.Options) {
	cfg, err := c.loadConfig()
	if err != nil {
		c.Logger.Warn("ignoring config", "err", err)
		return
	}
	if opts.Unit == 0 {
		opts.Unit = cfg.Unit
	}
	if opts.Linkage == "" {
		opts.Linkage = cfg.Linkage
	}
	if opts.Style == "" {
		opts.Style = cfg.Style
	}
	if f := cmd.Flags().Lookup("spokes"); f != nil && !f.Changed {
		opts.Spokes = cfg.Spokes
	}
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner with the cache backend the config
// selects. The --no-cache flag overrides the config.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		c.Logger.Warn("ignoring config", "err", err)
	}
	cacheCfg := cfg.Cache
	if noCache {
		cacheCfg.Disabled = true
	}
	cch, err := newCache(ctx, cacheCfg)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cch, nil, c.Logger), nil
}

// newCache picks the cache backend from config: nothing when disabled,
// Redis when configured, otherwise the file cache.
func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Redis != "" {
		return cache.NewRedisCache(ctx, cfg.Redis)
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		dir, err = config.DefaultCacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

// loadMatrices reads the local and global similarity matrices from CSV files.
func loadMatrices(localPath, globalPath string) (local, global *simmat.Matrix, err error) {
	local, err = simmat.ReadCSVFile(localPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load local matrix %s: %w", localPath, err)
	}
	global, err = simmat.ReadCSVFile(globalPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load global matrix %s: %w", globalPath, err)
	}
	return local, global, nil
}
