package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	LogLevel string // overrides LOG_LEVEL when set
}

// NewRootCommand creates the boardcamp command.  Without a subcommand it
// behaves like "serve".
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	serve := NewServeCommand(opts)
	cmd := &cobra.Command{
		Use:           "boardcamp",
		Short:         "Board game rental API",
		Long:          "HTTP API for a board game rental shop: catalogue, customers and the rental lifecycle.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          serve.RunE,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error); defaults to LOG_LEVEL")

	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCommand(opts))
	return cmd
}

// level picks the flag over the configured value.
func (o *RootOptions) level(configured string) string {
	if o.LogLevel != "" {
		return o.LogLevel
	}
	return configured
}
