// Package cli implements the clishot command-line interface.
//
// # Commands
//
//   - render: Draw a transcript file, stdin, or --line flags to PNG
//   - serve: Run the HTTP render API
//   - styles: Print the effective style table
//   - cache: Manage the artifact and image cache
//   - completion: Generate shell completion scripts
//
// # Configuration
//
// Every command that renders reads an optional clishot.toml (or the file
// given with --config). Flags override file values.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clishot/pkg/buildinfo"
	"github.com/matzehuels/clishot/pkg/cache"
	"github.com/matzehuels/clishot/pkg/config"
	"github.com/matzehuels/clishot/pkg/fonts"
	"github.com/matzehuels/clishot/pkg/httputil"
	"github.com/matzehuels/clishot/pkg/inset"
	"github.com/matzehuels/clishot/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "clishot"

	// imageNamespace is the cache namespace for downloaded images.
	imageNamespace = "images"

	// redisKeyPrefix scopes keys in a Redis instance shared with other services.
	redisKeyPrefix = "clishot:"
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
		Use:          appName,
		Short:        "clishot renders terminal transcripts as images",
		Long:         `clishot draws CLI transcripts onto a window-styled canvas, coloring each line by its prefix and insetting images referenced from the transcript.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.stylesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// runnerOpts selects the collaborators of a pipeline runner.
type runnerOpts struct {
	noCache bool
	// restrict confines local images to the configured base directory.
	restrict bool
}

// newRunner creates a pipeline runner with cache, fonts, and image
// resolution configured from cfg.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, opts runnerOpts) (*pipeline.Runner, error) {
	store, err := newCache(ctx, cfg.Cache, opts.noCache)
	if err != nil {
		return nil, err
	}

	var keyer cache.Keyer
	if cfg.Cache.RedisURL != "" && !opts.noCache {
		keyer = cache.NewScopedKeyer(nil, redisKeyPrefix)
	}
	r := pipeline.NewRunner(store, keyer, c.Logger)
	r.Fonts = fonts.Load(fonts.Options{
		TextPath:  expandHome(cfg.Fonts.Text),
		EmojiPath: expandHome(cfg.Fonts.Emoji),
		Logger:    c.Logger,
	})

	ttl := cache.TTLHTTP
	if cfg.Cache.TTL.Duration > 0 {
		ttl = cfg.Cache.TTL.Duration
	}
	client := httputil.NewClient(store, imageNamespace, ttl, map[string]string{
		"User-Agent": buildinfo.UserAgent(),
	})
	client.SetLogger(c.Logger)
	client.SetKeyer(keyer)
	if cfg.Images.Timeout.Duration > 0 {
		client.SetTimeout(cfg.Images.Timeout.Duration)
	}

	r.Images = inset.NewResolver(&inset.Router{
		Remote: &inset.HTTPProvider{Client: client},
		Local:  &inset.FileProvider{BaseDir: expandHome(cfg.Images.BaseDir), Restrict: opts.restrict},
	}, c.Logger)
	return r, nil
}

// newCache selects Redis when configured, else the file cache.
func newCache(ctx context.Context, cc config.Cache, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if cc.RedisURL != "" {
		return cache.NewRedisCache(ctx, cc.RedisURL)
	}
	dir := expandHome(cc.Dir)
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// loadConfig reads path, or the first discovered config file when path is
// empty. No file at all yields an empty config.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.Find()
	}
	if path == "" {
		return &config.Config{}, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/clishot/).
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

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatPNG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
