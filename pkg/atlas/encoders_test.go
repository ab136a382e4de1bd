package atlas

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestWriteXML(t *testing.T) {
	p := NewPacker(64, 64)
	if remainder := p.Pack([]*Bitmap{testBitmap("a", 10, 10, 1)}); len(remainder) != 0 {
		t.Fatal("bitmap should pack")
	}

	var buf bytes.Buffer
	if err := p.WriteXML(&buf, "page", DescriptorOptions{Trim: true, Rotate: true}); err != nil {
		t.Fatal(err)
	}

	want := "\t<tex n=\"page\">\n" +
		"\t\t<img n=\"a\" x=\"0\" y=\"0\" w=\"10\" h=\"10\" fx=\"0\" fy=\"0\" fw=\"10\" fh=\"10\" r=\"0\" />\n" +
		"\t</tex>\n"
	if buf.String() != want {
		t.Errorf("XML output mismatch:\ngot:  %q\nwant: %q", buf.String(), want)
	}
}

func TestWriteJSON(t *testing.T) {
	p := NewPacker(64, 64)
	if remainder := p.Pack([]*Bitmap{testBitmap("a", 10, 10, 1)}); len(remainder) != 0 {
		t.Fatal("bitmap should pack")
	}

	var buf bytes.Buffer
	if err := p.WriteJSON(&buf, "page", DescriptorOptions{}); err != nil {
		t.Fatal(err)
	}

	want := "\t\t\t\"name\":\"page\",\n" +
		"\t\t\t\"images\":[\n" +
		"\t\t\t\t{ \"n\":\"a\", \"x\":0, \"y\":0, \"w\":10, \"h\":10 }\n" +
		"\t\t\t]\n"
	if buf.String() != want {
		t.Errorf("JSON output mismatch:\ngot:  %q\nwant: %q", buf.String(), want)
	}
}

func TestWriteJSONSeparatesRecords(t *testing.T) {
	p := NewPacker(64, 64)
	bitmaps := []*Bitmap{testBitmap("b", 4, 4, 2), testBitmap("a", 4, 4, 1)}
	if remainder := p.Pack(bitmaps); len(remainder) != 0 {
		t.Fatal("bitmaps should pack")
	}

	var buf bytes.Buffer
	if err := p.WriteJSON(&buf, "page", DescriptorOptions{Rotate: true}); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if got := strings.Count(out, "},"); got != 1 {
		t.Errorf("expected exactly one record separator, got %d in %q", got, out)
	}
	if !strings.Contains(out, "\"r\":false") {
		t.Errorf("rotation flag missing from %q", out)
	}
}

func TestRenderImagePlacesPixels(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	src.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255})
	src.SetNRGBA(1, 1, color.NRGBA{R: 255, G: 255, A: 255})

	p := NewPacker(8, 8)
	if remainder := p.Pack([]*Bitmap{NewBitmap("a", src)}); len(remainder) != 0 {
		t.Fatal("bitmap should pack")
	}

	canvas := p.RenderImage()
	if canvas.Bounds().Dx() != p.Width() || canvas.Bounds().Dy() != p.Height() {
		t.Fatalf("canvas %v does not match packer size %dx%d",
			canvas.Bounds(), p.Width(), p.Height())
	}

	placement := p.Entries()[0].Placement
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			got := canvas.NRGBAAt(placement.X+x, placement.Y+y)
			want := src.NRGBAAt(x, y)
			if got != want {
				t.Errorf("pixel (%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRenderImageSkipsDuplicates(t *testing.T) {
	a := testBitmap("a", 4, 4, 0x7f)
	b := testBitmap("b", 4, 4, 0x7f)

	p := NewPacker(16, 16, WithUnique())
	if remainder := p.Pack([]*Bitmap{b, a}); len(remainder) != 0 {
		t.Fatal("bitmaps should pack")
	}
	if p.Entries()[1].Placement.DupIndex != 0 {
		t.Fatal("second bitmap should be a duplicate")
	}

	canvas := p.RenderImage()
	// Only one 4x4 region may carry pixel data.
	opaque := 0
	bounds := canvas.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if canvas.NRGBAAt(x, y).A != 0 {
				opaque++
			}
		}
	}
	if opaque != 16 {
		t.Errorf("expected 16 opaque pixels from the canonical copy, got %d", opaque)
	}
}

func TestCopyPixelsRotated(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})

	dst := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	copyPixelsRotated(dst, src, 1, 1)

	// Destination (x+i, y+j) receives source (j, i).
	if got := dst.NRGBAAt(1, 1); got != src.NRGBAAt(0, 0) {
		t.Errorf("dst(1,1) = %v, want source (0,0)", got)
	}
	if got := dst.NRGBAAt(1, 2); got != src.NRGBAAt(1, 0) {
		t.Errorf("dst(1,2) = %v, want source (1,0)", got)
	}
}
