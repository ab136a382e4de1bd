package atlas

import "image"

// RenderImage composes the atlas pixels onto a canvas of the final
// shrunk size. Duplicate entries contribute no pixels: their descriptor
// records point at the canonical copy's coordinates, which has already
// been rendered.
func (p *Packer) RenderImage() *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	for _, entry := range p.entries {
		if entry.Placement.DupIndex >= 0 || entry.Bitmap.Pix == nil {
			continue
		}
		if entry.Placement.Rotated {
			copyPixelsRotated(canvas, entry.Bitmap.Pix, entry.Placement.X, entry.Placement.Y)
		} else {
			copyPixels(canvas, entry.Bitmap.Pix, entry.Placement.X, entry.Placement.Y)
		}
	}
	return canvas
}

// copyPixels blits src onto dst with its top-left corner at (x, y),
// clipping against the destination bounds.
func copyPixels(dst *image.NRGBA, src *image.NRGBA, x, y int) {
	bounds := src.Bounds()
	for row := 0; row < bounds.Dy(); row++ {
		if y+row >= dst.Rect.Dy() {
			break
		}
		srcOff := src.PixOffset(bounds.Min.X, bounds.Min.Y+row)
		dstOff := dst.PixOffset(x, y+row)

		width := bounds.Dx()
		if x+width > dst.Rect.Dx() {
			width = dst.Rect.Dx() - x
		}
		copy(dst.Pix[dstOff:dstOff+width*4], src.Pix[srcOff:srcOff+width*4])
	}
}

// copyPixelsRotated blits src rotated 90°: destination pixel
// (x+i, y+j) receives source pixel (j, i), so the rotated footprint is
// src.Height wide and src.Width tall.
func copyPixelsRotated(dst *image.NRGBA, src *image.NRGBA, x, y int) {
	bounds := src.Bounds()
	for j := 0; j < bounds.Dx(); j++ {
		for i := 0; i < bounds.Dy(); i++ {
			if x+i >= dst.Rect.Dx() || y+j >= dst.Rect.Dy() {
				continue
			}
			dst.SetNRGBA(x+i, y+j, src.NRGBAAt(bounds.Min.X+j, bounds.Min.Y+i))
		}
	}
}
