package atlas

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
)

// Bitmap is a named source image queued for packing. It is immutable
// once loaded; the packer holds references and never copies pixels.
type Bitmap struct {
	// Name identifies the bitmap in descriptor output and is the sort
	// key for the binary encoder. Names must be unique per atlas.
	Name string

	// Width and Height are the packed pixel dimensions (post-trim).
	Width, Height int

	// FrameX and FrameY are the offsets of the original untrimmed frame
	// relative to the packed rectangle (zero or negative), and FrameW
	// and FrameH the original frame size. All zero when not trimmed.
	FrameX, FrameY int
	FrameW, FrameH int

	// Pix holds the pixel data. May be nil for layout-only packing, in
	// which case the content hash must be set explicitly.
	Pix *image.NRGBA

	hash string
}

// NewBitmap wraps an image for packing. The image bounds determine the
// packed size; frame metadata defaults to the untrimmed extent.
func NewBitmap(name string, img *image.NRGBA) *Bitmap {
	b := img.Bounds()
	return &Bitmap{
		Name:   name,
		Width:  b.Dx(),
		Height: b.Dy(),
		FrameW: b.Dx(),
		FrameH: b.Dy(),
		Pix:    img,
	}
}

// ContentHash returns the SHA-256 hex digest of the pixel data,
// computing and memoizing it on first use. Two bitmaps with equal
// hashes are duplicate candidates; Equal confirms.
func (b *Bitmap) ContentHash() string {
	if b.hash == "" && b.Pix != nil {
		sum := sha256.Sum256(b.Pix.Pix)
		b.hash = hex.EncodeToString(sum[:])
	}
	return b.hash
}

// SetContentHash overrides the content hash, for callers packing
// layout-only bitmaps without pixel data.
func (b *Bitmap) SetContentHash(hash string) { b.hash = hash }

// Equal reports whether two bitmaps are pixel-identical. Hash equality
// alone is not trusted for duplicate detection.
func (b *Bitmap) Equal(other *Bitmap) bool {
	if b.Width != other.Width || b.Height != other.Height {
		return false
	}
	if b.Pix == nil || other.Pix == nil {
		return b.Pix == other.Pix && b.hash == other.hash
	}
	return bytes.Equal(b.Pix.Pix, other.Pix.Pix)
}
