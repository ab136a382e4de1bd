// Package pipeline runs the complete atlas build: load source bitmaps,
// pack them onto one or more pages, and encode the selected outputs.
//
// Both the flag-driven and the manifest-driven CLI paths funnel into
// this package, so packing behavior and caching stay identical between
// them.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, logger)
//	result, err := runner.Run(ctx, pipeline.Options{
//	    Name:   "sprites",
//	    Inputs: []string{"assets"},
//	    Output: "build",
//	    Size:   2048,
//	    XML:    true,
//	})
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/Arcnor/crunch/pkg/binpack"
	"github.com/Arcnor/crunch/pkg/errors"
	"github.com/Arcnor/crunch/pkg/imageio"
	"github.com/Arcnor/crunch/pkg/manifest"
)

// Options configures one atlas build.
type Options struct {
	// Name is the atlas base name; outputs derive their file names
	// from it.
	Name string

	// Inputs are image files or directories to collect bitmaps from.
	Inputs []string

	// Output is the directory the outputs are written to.
	Output string

	// Pack options.
	Size      int
	Padding   int
	Unique    bool
	Rotate    bool
	Trim      bool
	Algorithm string
	Heuristic binpack.Heuristic

	// Output selection. BinaryVersion 0 is the first versioned layout;
	// the CLI and the manifest both default to the legacy layout (-1).
	// BinaryAlignment 0 resolves to manifest.DefaultBinaryAlignment.
	Image           string
	XML             bool
	JSON            bool
	Binary          bool
	BinaryVersion   int
	BinaryAlignment int

	// Force rebuilds even when the cache says outputs are current.
	Force bool

	// Logger defaults to log.Default when nil.
	Logger *log.Logger
}

// FromManifest converts a parsed manifest into pipeline options.
func FromManifest(m *manifest.Manifest) Options {
	return Options{
		Name:            m.Name,
		Inputs:          m.Inputs,
		Output:          m.Output,
		Size:            m.Pack.Size,
		Padding:         m.Padding(),
		Unique:          m.Pack.Unique,
		Rotate:          m.Pack.Rotate,
		Trim:            m.Pack.Trim,
		Algorithm:       m.Pack.Algorithm,
		Heuristic:       m.Heuristic(),
		Image:           m.Outputs.Image,
		XML:             m.Outputs.XML,
		JSON:            m.Outputs.JSON,
		Binary:          m.Outputs.Binary,
		BinaryVersion:   m.BinaryVersion(),
		BinaryAlignment: m.Outputs.BinaryAlignment,
	}
}

// validateAndSetDefaults checks required fields and fills in defaults.
func (o *Options) validateAndSetDefaults() error {
	if o.Name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "atlas name is required")
	}
	if len(o.Inputs) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one input is required")
	}
	if o.Output == "" {
		o.Output = "."
	}
	if o.Size == 0 {
		o.Size = manifest.DefaultSize
	}
	if o.Size < 1 || o.Size > manifest.MaxSize {
		return errors.New(errors.ErrCodeInvalidSize,
			"size %d out of range [1,%d]", o.Size, manifest.MaxSize)
	}
	if o.Padding < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "padding must not be negative")
	}
	if o.Algorithm == "" {
		o.Algorithm = manifest.DefaultAlgorithm
	}
	switch o.Algorithm {
	case "maxrects", "skyline":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown algorithm %q", o.Algorithm)
	}
	if o.Image == "" {
		o.Image = manifest.DefaultImage
	}
	if !imageio.ValidImageFormat(o.Image) {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported image format %q", o.Image)
	}
	if o.Binary {
		if o.BinaryAlignment == 0 {
			o.BinaryAlignment = manifest.DefaultBinaryAlignment
		}
		if o.BinaryVersion >= 0 && (o.BinaryAlignment < 1 || o.BinaryAlignment > 4096) {
			return errors.New(errors.ErrCodeInvalidInput,
				"binary alignment %d out of range [1,4096]", o.BinaryAlignment)
		}
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return nil
}

// PageInfo describes one packed atlas page.
type PageInfo struct {
	Name    string `json:"name"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Sprites int    `json:"sprites"`
}

// Result contains the outputs of a build.
type Result struct {
	// Pages lists the packed pages in order.
	Pages []PageInfo

	// Files lists every written output path.
	Files []string

	// Cached reports that the outputs were already current and no
	// repack happened.
	Cached bool

	// Stats contains size and timing information.
	Stats Stats
}

// Stats contains build statistics.
type Stats struct {
	Bitmaps    int
	Duplicates int
	LoadTime   time.Duration
	PackTime   time.Duration
	EncodeTime time.Duration
}
