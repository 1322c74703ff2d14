package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/buildinfo"
	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/httputil"
	"github.com/matzehuels/orgchart/pkg/orgtree"
	"github.com/matzehuels/orgchart/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "orgchart"

	// envPrefix prefixes the environment variables read by the config layer.
	envPrefix = "ORGCHART_"

	// defaultConfigFile is read from the working directory when present.
	defaultConfigFile = "orgchart.toml"
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
		Short: "Orgchart draws interactive organization charts",
		Long: `Orgchart lays out an organization tree, with its ownership chain above the
focus entity and its subsidiaries below, and renders it as SVG, JSON or DOT.
Charts can be explored in the terminal or served with an interactive viewer.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	addConfigFlags(root.PersistentFlags())

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.animateCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, cfg *Config) (*pipeline.Runner, error) {
	store, err := openCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

// loadTree reads the tree at path, fetching URLs through the configured
// cache.
func (c *CLI) loadTree(ctx context.Context, cfg *Config, path string) (*orgtree.Entity, error) {
	store, err := openCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return pipeline.LoadContext(ctx, path, os.Stdin, httputil.NewClient(store, c.Logger))
}

// openCache opens the configured backend. A file cache that cannot be
// created degrades to no caching.
func openCache(ctx context.Context, cfg *Config) (cache.Cache, error) {
	if cfg.NoCache {
		return cache.NewNullCache(), nil
	}
	cc := cfg.Cache
	if cc.Backend == "" || cc.Backend == cache.BackendFile {
		if cc.Dir == "" {
			dir, err := cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			cc.Dir = dir
		}
	}
	return cache.Open(ctx, cc)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/orgchart/).
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
