package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coldog/minipack/pkg/bld"
	"github.com/coldog/minipack/pkg/config"
)

// flagKeys binds build flags to their config keys.
var flagKeys = map[string]string{
	"context":         "context",
	"output-path":     "output.path",
	"output-filename": "output.filename",
	"extensions":      "resolve.extensions",
	"target":          "target",
	"minify":          "minify",
	"concurrency":     "concurrency",
}

func newBuildCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [entry]",
		Short: "Bundle an entry module",
		Example: `  minipack build ./src/index.js
  minipack build -o public --output-filename 'app.[hash].js'
  minipack build --config build/minipack.config.yaml --minify`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for flag, key := range flagKeys {
				if err := opts.v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			if len(args) == 1 {
				opts.v.Set("entry", args[0])
			}

			cfg, _, err := config.Load(opts.v, config.LoadOptions{ConfigFilePath: opts.cfgFile})
			if err != nil {
				return err
			}
			c, err := bld.New(cfg)
			if err != nil {
				return err
			}
			file, err := c.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", file)
			return nil
		},
	}

	defaults := config.DefaultConfig()
	flags := cmd.Flags()
	flags.String("context", defaults.Context, "root directory for module identities (default is the entry's directory)")
	flags.StringP("output-path", "o", defaults.Output.Path, "output directory")
	flags.String("output-filename", defaults.Output.Filename, "output file name; [hash] is replaced by a content hash")
	flags.StringSlice("extensions", defaults.Resolve.Extensions, "extensions tried for specifiers naming no file, in order")
	flags.String("target", defaults.Target, "language target (es2015..es2022, esnext)")
	flags.Bool("minify", defaults.Minify, "minify emitted modules")
	flags.Int("concurrency", defaults.Concurrency, "modules built in parallel")
	return cmd
}
