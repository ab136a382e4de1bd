package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Arcnor/crunch/pkg/atlas"
	"github.com/Arcnor/crunch/pkg/binpack"
	"github.com/Arcnor/crunch/pkg/errors"
	"github.com/Arcnor/crunch/pkg/manifest"
	"github.com/Arcnor/crunch/pkg/pipeline"
)

// packOpts holds the command-line flags for the pack command.
type packOpts struct {
	size      int
	pad       int
	unique    bool
	rotate    bool
	trim      bool
	xml       bool
	json      bool
	binary    bool
	binVer    int
	binAlign  int
	image     string
	algorithm string
	heuristic string
	force     bool
	noCache   bool
}

// packCommand creates the pack command.
//
// The first argument names the atlas: its directory becomes the output
// directory and its base name prefixes every output file, matching
// "crunch bin/atlas assets" writing bin/atlas.png and friends.
func (c *CLI) packCommand() *cobra.Command {
	opts := packOpts{
		size:      manifest.DefaultSize,
		pad:       manifest.DefaultPadding,
		binVer:    atlas.LegacyVersion,
		binAlign:  manifest.DefaultBinaryAlignment,
		image:     manifest.DefaultImage,
		algorithm: manifest.DefaultAlgorithm,
		heuristic: binpack.BestShortSideFit.String(),
	}

	cmd := &cobra.Command{
		Use:   "pack <output> <input>...",
		Short: "Pack images into a texture atlas",
		Long: `Pack images into a texture atlas.

The output argument is the atlas path without extension; inputs are
image files or directories searched recursively.

Examples:
  crunch pack bin/atlas assets/sprites
  crunch pack bin/atlas assets/characters assets/tiles --trim --unique
  crunch pack bin/atlas assets --size 2048 --pad 0 --xml --json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPack(cmd.Context(), args[0], args[1:], opts)
		},
	}

	cmd.Flags().IntVar(&opts.size, "size", opts.size, "maximum atlas page size")
	cmd.Flags().IntVar(&opts.pad, "pad", opts.pad, "padding pixels between sprites")
	cmd.Flags().BoolVar(&opts.unique, "unique", false, "share placements between identical images")
	cmd.Flags().BoolVar(&opts.rotate, "rotate", false, "allow 90 degree rotation of sprites")
	cmd.Flags().BoolVar(&opts.trim, "trim", false, "trim transparent borders off sprites")
	cmd.Flags().BoolVar(&opts.xml, "xml", false, "write an XML descriptor")
	cmd.Flags().BoolVar(&opts.json, "json", false, "write a JSON descriptor")
	cmd.Flags().BoolVar(&opts.binary, "binary", false, "write a binary descriptor (default when no format is selected)")
	cmd.Flags().IntVar(&opts.binVer, "binversion", opts.binVer, "binary descriptor version (-1, the default, is the legacy layout)")
	cmd.Flags().IntVar(&opts.binAlign, "binalign", opts.binAlign, "binary record alignment in bytes (versioned layouts only)")
	cmd.Flags().StringVar(&opts.image, "image", opts.image, "atlas image format (png or webp)")
	cmd.Flags().StringVar(&opts.algorithm, "algorithm", opts.algorithm, "packing algorithm (maxrects or skyline)")
	cmd.Flags().StringVar(&opts.heuristic, "heuristic", opts.heuristic, "maxrects placement heuristic")
	cmd.Flags().BoolVar(&opts.force, "force", false, "rebuild even when outputs are up to date")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the build cache")

	return cmd
}

func (c *CLI) runPack(ctx context.Context, target string, inputs []string, opts packOpts) error {
	heuristic, ok := binpack.ParseHeuristic(opts.heuristic)
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "unknown heuristic %q", opts.heuristic)
	}
	if !opts.xml && !opts.json && !opts.binary {
		opts.binary = true
	}

	name := filepath.Base(target)
	popts := pipeline.Options{
		Name:            name,
		Inputs:          inputs,
		Output:          filepath.Dir(target),
		Size:            opts.size,
		Padding:         opts.pad,
		Unique:          opts.unique,
		Rotate:          opts.rotate,
		Trim:            opts.trim,
		Algorithm:       opts.algorithm,
		Heuristic:       heuristic,
		Image:           opts.image,
		XML:             opts.xml,
		JSON:            opts.json,
		Binary:          opts.binary,
		BinaryVersion:   opts.binVer,
		BinaryAlignment: opts.binAlign,
		Force:           opts.force,
		Logger:          c.Logger,
	}

	return c.runBuild(ctx, popts, opts.noCache)
}

// runBuild executes the pipeline with a spinner and prints the summary.
// Both pack and build funnel through here.
func (c *CLI) runBuild(ctx context.Context, opts pipeline.Options, noCache bool) error {
	runner := c.newRunner(noCache)
	defer runner.Cache.Close()

	spin := newSpinnerWithContext(ctx, "Packing "+opts.Name+"...")
	spin.Start()
	result, err := runner.Run(ctx, opts)
	spin.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		printError("%s", errors.UserMessage(err))
		return err
	}

	printPackSummary(result)
	return nil
}

// printPackSummary prints the per-page and per-file result breakdown.
func printPackSummary(result *pipeline.Result) {
	printSuccess("Packed %d sprites onto %d page(s)", result.Stats.Bitmaps, len(result.Pages))
	for _, page := range result.Pages {
		printDetail("%s: %dx%d, %d sprites", page.Name, page.Width, page.Height, page.Sprites)
	}
	for _, file := range result.Files {
		printFile(file)
	}
	printStats(result.Stats.Bitmaps, result.Stats.Duplicates, result.Cached)
}
