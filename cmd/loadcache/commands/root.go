// Package commands implements the CLI commands of loadcache.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/krisalay/loading-cache/internal/build"
	"github.com/spf13/cobra"
)

// CLI represents the command line interface for loadcache.
type CLI struct {
	log     log.Interface
	rootCmd *cobra.Command
}

// New creates a new CLI logging through logger.
func New(logger log.Interface) *CLI {
	rootCmd := &cobra.Command{
		Use:           "loadcache",
		Short:         "Subscribe to keys of a loading cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		log:     logger,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newDemoCmd())
	rootCmd.AddCommand(c.newFetchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
