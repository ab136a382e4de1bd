// Package imageio loads source bitmaps for packing and writes the
// composed atlas image.
//
// Supported input formats are PNG, JPEG, TGA and BMP; every decoded
// image is normalized to straight-alpha NRGBA with a tight pixel
// buffer, so downstream hashing and blitting never deal with strides or
// subimage offsets. Atlas output is PNG or WebP, chosen by file
// extension.
package imageio

import (
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"

	"github.com/Arcnor/crunch/pkg/atlas"
	"github.com/Arcnor/crunch/pkg/errors"
)

// inputExtensions lists the decodable source formats.
var inputExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tga":  true,
	".bmp":  true,
}

// Load decodes the image file at path into a tight NRGBA buffer.
func Load(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "input image %s", path)
		}
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImageDecode, err, "decode %s", path)
	}
	return toNRGBA(img), nil
}

// LoadBitmap loads and names one bitmap, optionally trimming its
// transparent border.
func LoadBitmap(path, name string, trim bool) (*atlas.Bitmap, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	bmp := atlas.NewBitmap(name, img)
	if trim {
		applyTrim(bmp)
	}
	return bmp, nil
}

// LoadAll collects bitmaps from the given paths. Directories are walked
// recursively; files are taken as-is. Bitmap names are input-relative
// paths with the extension stripped, using forward slashes, and the
// result is sorted by name for deterministic packing.
func LoadAll(inputs []string, trim bool) ([]*atlas.Bitmap, error) {
	var bitmaps []*atlas.Bitmap
	seen := make(map[string]string)

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "input %s", input)
			}
			return nil, err
		}

		if !info.IsDir() {
			name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
			if err := appendBitmap(&bitmaps, seen, input, name, trim); err != nil {
				return nil, err
			}
			continue
		}

		err = filepath.WalkDir(input, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if !inputExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			rel, err := filepath.Rel(input, path)
			if err != nil {
				return err
			}
			name := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
			return appendBitmap(&bitmaps, seen, path, name, trim)
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(bitmaps, func(i, j int) bool { return bitmaps[i].Name < bitmaps[j].Name })
	return bitmaps, nil
}

func appendBitmap(bitmaps *[]*atlas.Bitmap, seen map[string]string, path, name string, trim bool) error {
	if prev, ok := seen[name]; ok {
		return errors.New(errors.ErrCodeInvalidInput,
			"duplicate bitmap name %q (%s and %s)", name, prev, path)
	}
	bmp, err := LoadBitmap(path, name, trim)
	if err != nil {
		return err
	}
	seen[name] = path
	*bitmaps = append(*bitmaps, bmp)
	return nil
}

// toNRGBA converts any decoded image into a fresh NRGBA whose Pix slice
// covers exactly the image bounds.
func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if n, ok := src.(*image.NRGBA); ok && n.Stride == 4*bounds.Dx() && bounds.Min == (image.Point{}) {
		copy(dst.Pix, n.Pix)
		return dst
	}
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst
}

// opaqueBounds returns the bounding box of pixels with non-zero alpha,
// or false when the image is fully transparent.
func opaqueBounds(img *image.NRGBA) (image.Rectangle, bool) {
	bounds := img.Bounds()
	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X-1, bounds.Min.Y-1

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.Pix[img.PixOffset(x, y)+3] == 0 {
				continue
			}
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// applyTrim cuts the transparent border off a bitmap and records its
// original frame: FrameX/FrameY hold the (non-positive) offset of the
// untrimmed frame relative to the packed rectangle, FrameW/FrameH the
// original size. A fully transparent bitmap keeps a single pixel so it
// still occupies an addressable placement.
func applyTrim(bmp *atlas.Bitmap) {
	box, ok := opaqueBounds(bmp.Pix)
	if !ok {
		box = image.Rect(0, 0, 1, 1)
	}
	if box == bmp.Pix.Bounds() {
		return
	}

	trimmed := image.NewNRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	draw.Draw(trimmed, trimmed.Bounds(), bmp.Pix, box.Min, draw.Src)

	bmp.FrameX = -box.Min.X
	bmp.FrameY = -box.Min.Y
	bmp.FrameW = bmp.Width
	bmp.FrameH = bmp.Height
	bmp.Width = box.Dx()
	bmp.Height = box.Dy()
	bmp.Pix = trimmed
}
