package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coldog/minipack/pkg/logging"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
)

// options are the global flags.
type options struct {
	verbose bool
	cfgFile string
	v       *viper.Viper
}

func newRootCmd() *cobra.Command {
	opts := &options{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "minipack",
		Short: "A minimal JavaScript module bundler",
		Long: `minipack follows the static imports of an entry module, converts every
reachable module to CommonJS and writes a single bundle with a small
runtime loader.

Settings are read from minipack.config.{yaml,json,toml} in the working
directory (or --config), MINIPACK_* environment variables, and flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(opts.verbose)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			logging.SetLogger(l)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Logger().Sync() // stderr sync errors are not actionable
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./minipack.config.{yaml,json,toml})")

	cmd.AddCommand(newBuildCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "minipack %s (commit: %s)\n", Version, Commit)
		},
	}
}
