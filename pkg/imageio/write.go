package imageio

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"

	"github.com/Arcnor/crunch/pkg/errors"
)

// outputExtensions lists the encodable atlas image formats.
var outputExtensions = map[string]bool{
	".png":  true,
	".webp": true,
}

// ValidImageFormat reports whether ext (with or without a leading dot)
// names a supported atlas image format.
func ValidImageFormat(ext string) bool {
	return outputExtensions["."+strings.TrimPrefix(strings.ToLower(ext), ".")]
}

// WriteImage encodes img to path, choosing the codec by extension:
// .webp uses lossless WebP, .png (or no extension) uses PNG.
func WriteImage(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		err = nativewebp.Encode(f, img, nil)
	case ".png", "":
		err = png.Encode(f, img)
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported atlas image format %q", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	return f.Close()
}
