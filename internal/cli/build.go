package cli

import (
	"github.com/spf13/cobra"

	"github.com/Arcnor/crunch/pkg/manifest"
	"github.com/Arcnor/crunch/pkg/pipeline"
)

// buildCommand creates the manifest-driven build command.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		force   bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "build [manifest]",
		Short: "Build an atlas from a crunch.toml manifest",
		Long: `Build an atlas from a crunch.toml manifest.

Without an argument the manifest is read from ./crunch.toml. Input and
output paths in the manifest resolve relative to its directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "crunch.toml"
			if len(args) == 1 {
				path = args[0]
			}

			m, err := manifest.Load(path)
			if err != nil {
				return err
			}
			c.Logger.Debug("loaded manifest", "path", path, "name", m.Name)

			opts := pipeline.FromManifest(m)
			opts.Force = force
			opts.Logger = c.Logger
			return c.runBuild(cmd.Context(), opts, noCache)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "rebuild even when outputs are up to date")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the build cache")

	return cmd
}
