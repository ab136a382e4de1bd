// Package atlas packs bitmaps onto a minimal-area canvas and encodes
// the resulting layout in several interchange formats.
//
// # Architecture
//
// Packing happens in a single pass: the Packer consumes its input list
// from the end, asking a [binpack.Bin] for a position per bitmap and
// recording one Entry per placement. Pixel-identical bitmaps are
// detected by content hash and share the canonical placement instead of
// consuming canvas area. After the pass the canvas is shrunk by
// repeated halving to the smallest extent that still covers every
// placement.
//
// Running out of canvas is not an error: Pack returns the unconsumed
// remainder and the caller decides whether to start another atlas page
// or accept a partial pack.
//
// # Encoders
//
// Four encoders consume the final entry list:
//
//   - RenderImage composes the atlas pixels (PNG/WebP written by the
//     caller)
//   - WriteXML and WriteJSON emit descriptor records in pack order
//   - WriteBinary emits a compact descriptor, sorted by name, with
//     optional record alignment for memory-mapped consumption
package atlas
