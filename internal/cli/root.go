package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clishot/pkg/observability"
)

// Execute builds the command tree and runs it with ctx.
//
// Logging goes to stderr at info level. --verbose (-v) switches to debug
// level and logs pipeline, cache, and HTTP hook events.
func Execute(ctx context.Context, args []string) error {
	var verbose bool

	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := LogInfo
		if verbose {
			level = LogDebug
			observability.NewLogHooks(c.Logger).Register()
		}
		c.SetLogLevel(level)
		return nil
	}

	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
