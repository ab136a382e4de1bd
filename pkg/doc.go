// Package pkg provides the core libraries for the crunch texture packer.
//
// # Overview
//
// Crunch packs sprite images into texture atlases. The pkg directory is
// organized around the build flow:
//
//	source images
//	         ↓
//	    [imageio] package (decode, trim, normalize to NRGBA)
//	         ↓
//	    [binpack] + [atlas] packages (place bitmaps, dedup, shrink)
//	         ↓
//	    [atlas] encoders + [imageio] (PNG/WebP image, XML/JSON/binary descriptors)
//
// # Main Packages
//
// [binpack] - 2D rectangle bin packing. MaxRects with pluggable
// placement heuristics, plus a Skyline packer.
//
// [atlas] - The packing pass itself: duplicate detection, rotation,
// canvas shrinking, and the raster/XML/JSON/binary encoders.
//
// [imageio] - Image decoding (PNG, JPEG, TGA, BMP), transparent-border
// trimming, and atlas image encoding (PNG, WebP).
//
// [manifest] - crunch.toml project files.
//
// [pipeline] - Orchestrates load → pack → encode across multiple atlas
// pages, with build-result caching via [cache].
//
// [errors] - Structured error codes shared by the CLI and libraries.
//
// [observability] - Optional metrics/tracing hooks.
//
// [binpack]: https://pkg.go.dev/github.com/Arcnor/crunch/pkg/binpack
// [atlas]: https://pkg.go.dev/github.com/Arcnor/crunch/pkg/atlas
// [imageio]: https://pkg.go.dev/github.com/Arcnor/crunch/pkg/imageio
// [manifest]: https://pkg.go.dev/github.com/Arcnor/crunch/pkg/manifest
// [pipeline]: https://pkg.go.dev/github.com/Arcnor/crunch/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/Arcnor/crunch/pkg/cache
// [errors]: https://pkg.go.dev/github.com/Arcnor/crunch/pkg/errors
// [observability]: https://pkg.go.dev/github.com/Arcnor/crunch/pkg/observability
package pkg
