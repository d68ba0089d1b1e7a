// Package cli implements the brickshell command-line interface.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/brickshell/pkg/buildinfo"
	"github.com/matzehuels/brickshell/pkg/cache"
	"github.com/matzehuels/brickshell/pkg/config"
	"github.com/matzehuels/brickshell/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "brickshell"

	// defaultOpenings is the file prompt writes when --output is not given.
	defaultOpenings = "openings.json"
)

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

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Brickshell lays out a brick shell and cuts doors and windows into it",
		Long: `Brickshell sizes a rectangular brick shell to a brick budget, generates
every brick of its walls, floor and roof, and deactivates the bricks that fall
inside the door and window openings you describe.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (.toml, .yaml or .yml)")

	root.AddCommand(c.solveCommand())
	root.AddCommand(c.optimizeCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.promptCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// loadConfig reads the --config file, or the defaults when none is given.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	if c.configPath != "" {
		c.Logger.Debug("loaded config", "path", c.configPath)
	}
	return cfg, nil
}

// cacheFlags are shared by every command that runs the dimension search.
type cacheFlags struct {
	noCache bool
	cache   string // redis URL or cache directory
	prefix  string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().StringVar(&f.cache, "cache", "", "cache location: a directory or redis://host:6379/0")
	cmd.Flags().StringVar(&f.prefix, "cache-prefix", "", "key namespace when several deployments share a cache")
}

// apply overrides the configured cache backend.
func (f cacheFlags) apply(cfg *config.Cache) {
	switch {
	case f.noCache:
		cfg.Backend = config.CacheNone
	case strings.HasPrefix(f.cache, "redis://"), strings.HasPrefix(f.cache, "rediss://"):
		cfg.Backend = config.CacheRedis
		cfg.URL = f.cache
	case f.cache != "":
		cfg.Backend = config.CacheFile
		cfg.Dir = f.cache
	}
	if f.prefix != "" {
		cfg.Prefix = f.prefix
	}
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg config.Cache) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, cfg.Keyer(), c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, cfg config.Cache) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cfg.URL)
	}
	dir := cfg.Dir
	if dir == "" {
		d, err := cache.DefaultDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseList splits a comma-separated flag value, dropping blanks.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
