package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Arcnor/crunch/pkg/atlas"
	"github.com/Arcnor/crunch/pkg/cache"
	"github.com/Arcnor/crunch/pkg/errors"
	"github.com/Arcnor/crunch/pkg/manifest"
)

// writeSprite encodes a w by h PNG filled with c.
func writeSprite(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestRunSinglePage(t *testing.T) {
	input := t.TempDir()
	output := t.TempDir()
	writeSprite(t, filepath.Join(input, "a.png"), 8, 8, color.NRGBA{R: 255, A: 255})
	writeSprite(t, filepath.Join(input, "b.png"), 4, 4, color.NRGBA{G: 255, A: 255})
	writeSprite(t, filepath.Join(input, "sub", "c.png"), 2, 2, color.NRGBA{B: 255, A: 255})

	runner := NewRunner(nil, nil)
	result, err := runner.Run(context.Background(), Options{
		Name:   "atlas",
		Inputs: []string{input},
		Output: output,
		Size:   64,
		XML:    true,
		JSON:   true,
		Binary: true,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(result.Pages))
	}
	if result.Pages[0].Name != "atlas" {
		t.Errorf("page name = %q, want %q", result.Pages[0].Name, "atlas")
	}
	if result.Pages[0].Sprites != 3 {
		t.Errorf("sprites = %d, want 3", result.Pages[0].Sprites)
	}
	if result.Stats.Bitmaps != 3 {
		t.Errorf("bitmaps = %d, want 3", result.Stats.Bitmaps)
	}
	if result.Cached {
		t.Error("first run must not be cached")
	}

	for _, name := range []string{"atlas.png", "atlas.xml", "atlas.json", "atlas.bin"} {
		if _, err := os.Stat(filepath.Join(output, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}

	xml, err := os.ReadFile(filepath.Join(output, "atlas.xml"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<atlas>", "<tex n=\"atlas\">", "n=\"sub/c\"", "</atlas>"} {
		if !strings.Contains(string(xml), want) {
			t.Errorf("atlas.xml missing %q", want)
		}
	}

	// The default binary alignment must leave room for every record;
	// a descriptor with all sprites skipped is useless.
	bin, err := os.Open(filepath.Join(output, "atlas.bin"))
	if err != nil {
		t.Fatal(err)
	}
	defer bin.Close()
	pages, err := atlas.ReadBinaryFile(bin, atlas.BinaryOptions{
		Version:   0,
		Alignment: manifest.DefaultBinaryAlignment,
	})
	if err != nil {
		t.Fatalf("ReadBinaryFile() error = %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("binary pages = %d, want 1", len(pages))
	}
	if len(pages[0].Images) != 3 {
		t.Errorf("binary records = %d, want 3", len(pages[0].Images))
	}
}

func TestRunMultiPage(t *testing.T) {
	input := t.TempDir()
	output := t.TempDir()
	writeSprite(t, filepath.Join(input, "a.png"), 4, 4, color.NRGBA{R: 1, A: 255})
	writeSprite(t, filepath.Join(input, "b.png"), 4, 4, color.NRGBA{R: 2, A: 255})
	writeSprite(t, filepath.Join(input, "c.png"), 4, 4, color.NRGBA{R: 3, A: 255})

	runner := NewRunner(nil, nil)
	result, err := runner.Run(context.Background(), Options{
		Name:          "atlas",
		Inputs:        []string{input},
		Output:        output,
		Size:          4, // exactly one sprite per page
		Binary:        true,
		BinaryVersion: atlas.LegacyVersion,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(result.Pages))
	}
	want := []string{"atlas", "atlas-1", "atlas-2"}
	for i, name := range want {
		if result.Pages[i].Name != name {
			t.Errorf("page %d name = %q, want %q", i, result.Pages[i].Name, name)
		}
		if _, err := os.Stat(filepath.Join(output, name+".png")); err != nil {
			t.Errorf("missing page image %s.png: %v", name, err)
		}
	}

	bin, err := os.Open(filepath.Join(output, "atlas.bin"))
	if err != nil {
		t.Fatal(err)
	}
	defer bin.Close()
	pages, err := atlas.ReadBinaryFile(bin, atlas.BinaryOptions{Version: atlas.LegacyVersion})
	if err != nil {
		t.Fatalf("ReadBinaryFile() error = %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("binary pages = %d, want 3", len(pages))
	}
	for i, name := range want {
		if pages[i].Name != name {
			t.Errorf("binary page %d name = %q, want %q", i, pages[i].Name, name)
		}
		if len(pages[i].Images) != 1 {
			t.Errorf("binary page %d records = %d, want 1", i, len(pages[i].Images))
		}
	}
}

func TestRunBitmapTooLarge(t *testing.T) {
	input := t.TempDir()
	writeSprite(t, filepath.Join(input, "huge.png"), 8, 8, color.NRGBA{A: 255})

	runner := NewRunner(nil, nil)
	_, err := runner.Run(context.Background(), Options{
		Name:   "atlas",
		Inputs: []string{input},
		Output: t.TempDir(),
		Size:   4,
	})
	if !errors.Is(err, errors.ErrCodeBitmapTooLarge) {
		t.Errorf("Run() error = %v, want code %v", err, errors.ErrCodeBitmapTooLarge)
	}
}

func TestRunNoImages(t *testing.T) {
	runner := NewRunner(nil, nil)
	_, err := runner.Run(context.Background(), Options{
		Name:   "atlas",
		Inputs: []string{t.TempDir()},
		Output: t.TempDir(),
	})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Run() error = %v, want code %v", err, errors.ErrCodeInvalidInput)
	}
}

func TestRunUsesCache(t *testing.T) {
	input := t.TempDir()
	output := t.TempDir()
	writeSprite(t, filepath.Join(input, "a.png"), 4, 4, color.NRGBA{R: 9, A: 255})

	c, err := cache.NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil)
	opts := Options{
		Name:   "atlas",
		Inputs: []string{input},
		Output: output,
		Size:   64,
		XML:    true,
	}

	ctx := context.Background()
	first, err := runner.Run(ctx, opts)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.Cached {
		t.Error("first run must not be cached")
	}

	second, err := runner.Run(ctx, opts)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if !second.Cached {
		t.Error("second run should hit the cache")
	}
	if len(second.Files) != len(first.Files) {
		t.Errorf("cached files = %d, want %d", len(second.Files), len(first.Files))
	}

	// A removed output invalidates the hit.
	if err := os.Remove(filepath.Join(output, "atlas.xml")); err != nil {
		t.Fatal(err)
	}
	third, err := runner.Run(ctx, opts)
	if err != nil {
		t.Fatalf("third Run() error = %v", err)
	}
	if third.Cached {
		t.Error("missing output file should force a rebuild")
	}

	// Force bypasses the cache outright.
	opts.Force = true
	forced, err := runner.Run(ctx, opts)
	if err != nil {
		t.Fatalf("forced Run() error = %v", err)
	}
	if forced.Cached {
		t.Error("forced run must not be cached")
	}
}

func TestRunSkylineAlgorithm(t *testing.T) {
	input := t.TempDir()
	output := t.TempDir()
	writeSprite(t, filepath.Join(input, "a.png"), 6, 3, color.NRGBA{R: 1, A: 255})
	writeSprite(t, filepath.Join(input, "b.png"), 3, 3, color.NRGBA{R: 2, A: 255})

	runner := NewRunner(nil, nil)
	result, err := runner.Run(context.Background(), Options{
		Name:      "atlas",
		Inputs:    []string{input},
		Output:    output,
		Size:      16,
		Algorithm: "skyline",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Pages) != 1 || result.Pages[0].Sprites != 2 {
		t.Errorf("pages = %+v, want one page with 2 sprites", result.Pages)
	}
}
