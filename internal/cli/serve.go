package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/clishot/pkg/server"
	"github.com/matzehuels/clishot/pkg/storage"
)

const defaultAddr = ":8080"

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	configPath string
	addr       string
	redisURL   string // overrides [cache].redis_url
	mongoURI   string // overrides [storage].mongo_uri
	outputDir  string // file store for saved renders when MongoDB is not configured
	noCache    bool
}

// serveCommand creates the serve command.
//
// Local image paths are confined to [images].base_dir, so a request cannot
// read arbitrary files from the host.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP render API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: ./clishot.toml)")
	cmd.Flags().StringVar(&opts.addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&opts.redisURL, "redis-url", "", "cache renders in Redis")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "", "store saved renders in MongoDB")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "store saved renders in this directory")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts *serveOpts) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.redisURL != "" {
		cfg.Cache.RedisURL = opts.redisURL
	}
	if opts.mongoURI != "" {
		cfg.Storage.MongoURI = opts.mongoURI
	}
	if opts.outputDir != "" {
		cfg.Output.Dir = opts.outputDir
	}

	runner, err := c.newRunner(ctx, cfg, runnerOpts{noCache: opts.noCache, restrict: true})
	if err != nil {
		return err
	}
	defer runner.Close()

	var store storage.Store
	switch {
	case cfg.Storage.MongoURI != "":
		store, err = storage.NewMongoStore(ctx, cfg.Storage.MongoURI, cfg.Storage.Database, cfg.Storage.Collection)
	case cfg.Output.Dir != "":
		store, err = storage.NewFileStore(expandHome(cfg.Output.Dir))
	}
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	printInfo("Serving on %s", opts.addr)
	return server.New(runner, store, c.Logger).Run(ctx, opts.addr)
}
