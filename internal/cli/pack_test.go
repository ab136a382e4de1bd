package cli

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Arcnor/crunch/pkg/atlas"
)

// writeTestSprite encodes a small opaque PNG at path.
func writeTestSprite(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), A: 255})
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

// runCLI executes the root command with args. The build cache is
// redirected into a temp dir so tests never touch the user's cache.
func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.Execute()
}

func TestPackCommand(t *testing.T) {
	input := t.TempDir()
	output := t.TempDir()
	writeTestSprite(t, filepath.Join(input, "a.png"), 8, 8)
	writeTestSprite(t, filepath.Join(input, "b.png"), 4, 4)

	target := filepath.Join(output, "atlas")
	err := runCLI(t, "pack", target, input, "--xml", "--size", "32")
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	for _, name := range []string{"atlas.png", "atlas.xml"} {
		if _, err := os.Stat(filepath.Join(output, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(output, "atlas.bin")); err == nil {
		t.Error("binary output written although --xml was selected")
	}
}

func TestPackCommandDefaultsToBinary(t *testing.T) {
	input := t.TempDir()
	output := t.TempDir()
	writeTestSprite(t, filepath.Join(input, "a.png"), 4, 4)
	writeTestSprite(t, filepath.Join(input, "some", "longer", "sprite-name.png"), 4, 4)

	target := filepath.Join(output, "atlas")
	if err := runCLI(t, "pack", target, input); err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	// The default descriptor must carry every sprite record, not just
	// the page header.
	bin, err := os.Open(filepath.Join(output, "atlas.bin"))
	if err != nil {
		t.Fatalf("missing default binary output: %v", err)
	}
	defer bin.Close()
	pages, err := atlas.ReadBinaryFile(bin, atlas.BinaryOptions{Version: atlas.LegacyVersion})
	if err != nil {
		t.Fatalf("ReadBinaryFile() error = %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("binary pages = %d, want 1", len(pages))
	}
	if len(pages[0].Images) != 2 {
		t.Errorf("binary records = %d, want 2", len(pages[0].Images))
	}
}

func TestPackCommandBadHeuristic(t *testing.T) {
	input := t.TempDir()
	writeTestSprite(t, filepath.Join(input, "a.png"), 4, 4)

	err := runCLI(t, "pack", filepath.Join(t.TempDir(), "atlas"), input,
		"--heuristic", "worst-fit")
	if err == nil {
		t.Fatal("pack should fail on unknown heuristic")
	}
}

func TestBuildCommand(t *testing.T) {
	project := t.TempDir()
	writeTestSprite(t, filepath.Join(project, "assets", "a.png"), 8, 8)
	writeTestSprite(t, filepath.Join(project, "assets", "b.png"), 8, 8)

	manifestPath := filepath.Join(project, "crunch.toml")
	manifest := `
name = "sprites"
inputs = ["assets"]
output = "build"

[pack]
size = 64

[outputs]
xml = true
json = true
`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	if err := runCLI(t, "build", manifestPath); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	for _, name := range []string{"sprites.png", "sprites.xml", "sprites.json"} {
		if _, err := os.Stat(filepath.Join(project, "build", name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
}

func TestBuildCommandMissingManifest(t *testing.T) {
	err := runCLI(t, "build", filepath.Join(t.TempDir(), "crunch.toml"))
	if err == nil {
		t.Fatal("build should fail without a manifest")
	}
}
