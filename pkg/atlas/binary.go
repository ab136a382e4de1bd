package atlas

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"
)

// LegacyVersion selects the unversioned binary layout: per-record names
// are written first, null-terminated, and no alignment padding is
// emitted.
const LegacyVersion = -1

// maxAlignment bounds the zero-fill buffer used for padding.
const maxAlignment = 4096

// BinaryOptions controls the binary descriptor layout.
type BinaryOptions struct {
	// Trim and Rotate match DescriptorOptions.
	Trim   bool
	Rotate bool

	// Version selects the stream layout. LegacyVersion (-1) writes the
	// unaligned legacy format; versions >= 0 are tagged in the header
	// and pad the stream to Alignment after the header and after every
	// record.
	Version int

	// Alignment is the padding unit in bytes for versions >= 0. Records
	// whose encoded footprint exceeds it are skipped, not truncated.
	Alignment int

	// Logger receives a warning per skipped record. Nil uses
	// log.Default().
	Logger *log.Logger
}

// BinaryPage pairs a packed page with the name its descriptor is
// written under.
type BinaryPage struct {
	Name   string
	Packer *Packer
}

// WriteBinaryFile encodes a multi-page binary descriptor: an int16
// page count followed by each page's descriptor. One position-tracking
// writer spans the whole file, so alignment padding is always relative
// to the file start, never to a page boundary. It returns the names of
// all records skipped across all pages.
func WriteBinaryFile(w io.Writer, pages []BinaryPage, opts BinaryOptions) ([]string, error) {
	if err := checkAlignment(opts); err != nil {
		return nil, err
	}

	bw := &binaryWriter{w: w}
	bw.writeInt16(int16(len(pages)))

	var skipped []string
	for _, page := range pages {
		skipped = append(skipped, page.Packer.writeBinary(bw, page.Name, opts)...)
		if bw.err != nil {
			break
		}
	}
	return skipped, bw.err
}

// WriteBinary encodes a single-page atlas descriptor starting at the
// beginning of w. Entries are first stable-sorted by bitmap name so
// consumers can binary-search the stream; the sort reorders the
// packer's entry list itself, keeping every placement attached to its
// bitmap.
//
// For versions >= 0, a record larger than the alignment unit cannot be
// represented; such records are dropped from the stream with a
// diagnostic and their names returned. The header count still includes
// them. Dropping is a deliberate lossy degrade, not an error.
func (p *Packer) WriteBinary(w io.Writer, name string, opts BinaryOptions) ([]string, error) {
	if err := checkAlignment(opts); err != nil {
		return nil, err
	}
	bw := &binaryWriter{w: w}
	skipped := p.writeBinary(bw, name, opts)
	return skipped, bw.err
}

func checkAlignment(opts BinaryOptions) error {
	if opts.Version >= 0 && (opts.Alignment <= 0 || opts.Alignment > maxAlignment) {
		return fmt.Errorf("binary alignment must be in [1, %d], got %d", maxAlignment, opts.Alignment)
	}
	return nil
}

// writeBinary emits one page descriptor onto an already-positioned
// writer. Alignment is computed from bw's running position, which is
// the absolute file offset when the same writer carries the page count
// and earlier pages.
func (p *Packer) writeBinary(bw *binaryWriter, name string, opts BinaryOptions) []string {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	sort.SliceStable(p.entries, func(i, j int) bool {
		return p.entries[i].Bitmap.Name < p.entries[j].Bitmap.Name
	})

	bw.writeHeaderName(name, opts.Version)
	bw.writeInt16(int16(len(p.entries)))
	if opts.Version >= 0 {
		bw.align(opts.Alignment)
	}

	var skipped []string
	for _, entry := range p.entries {
		bmp := entry.Bitmap

		if opts.Version >= 0 && recordFootprint(bmp.Name, opts) > opts.Alignment {
			logger.Warn("skipping image in binary output, record exceeds alignment (increase the alignment to include it)",
				"name", bmp.Name, "alignment", opts.Alignment)
			skipped = append(skipped, bmp.Name)
			continue
		}

		if opts.Version == LegacyVersion {
			bw.writeCString(bmp.Name)
		}

		bw.writeInt16(int16(entry.Placement.X))
		bw.writeInt16(int16(entry.Placement.Y))
		bw.writeInt16(int16(bmp.Width))
		bw.writeInt16(int16(bmp.Height))
		if opts.Trim {
			bw.writeInt16(int16(bmp.FrameX))
			bw.writeInt16(int16(bmp.FrameY))
			bw.writeInt16(int16(bmp.FrameW))
			bw.writeInt16(int16(bmp.FrameH))
		}
		if opts.Rotate {
			bw.writeByte(byte(boolByte(entry.Placement.Rotated)))
		}

		if opts.Version >= 0 {
			bw.writeString(bmp.Name)
			bw.align(opts.Alignment)
		}
	}

	return skipped
}

// recordFootprint is the encoded byte size of one versioned record:
// length-prefixed name, four core fields, optional trim fields and
// rotation byte.
func recordFootprint(name string, opts BinaryOptions) int {
	size := 2 + len(name) + 8
	if opts.Trim {
		size += 8
	}
	if opts.Rotate {
		size += 1
	}
	return size
}

// binaryWriter tracks the stream position for alignment and latches the
// first write error so encoding code stays linear.
type binaryWriter struct {
	w   io.Writer
	pos int64
	err error
}

var zeros [maxAlignment]byte

func (bw *binaryWriter) write(data []byte) {
	if bw.err != nil {
		return
	}
	n, err := bw.w.Write(data)
	bw.pos += int64(n)
	bw.err = err
}

func (bw *binaryWriter) writeByte(b byte) {
	bw.write([]byte{b})
}

func (bw *binaryWriter) writeInt16(v int16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(v))
	bw.write(buf[:])
}

// writeString writes a length-prefixed string (int16 length + bytes).
func (bw *binaryWriter) writeString(s string) {
	bw.writeInt16(int16(len(s)))
	bw.write([]byte(s))
}

// writeCString writes a null-terminated string.
func (bw *binaryWriter) writeCString(s string) {
	bw.write([]byte(s))
	bw.writeByte(0)
}

// writeHeaderName writes the atlas name. Versions >= 0 tag the stream
// with the version number followed by the length-prefixed name; the
// legacy layout writes just the null-terminated name.
func (bw *binaryWriter) writeHeaderName(name string, version int) {
	if version >= 0 {
		bw.writeInt16(int16(version))
		bw.writeString(name)
		return
	}
	bw.writeCString(name)
}

// align zero-fills up to the next multiple of alignment strictly
// greater than the current position: an already-aligned stream receives
// a full padding block, so every record starts a fresh block.
func (bw *binaryWriter) align(alignment int) {
	remaining := alignment - int(bw.pos%int64(alignment))
	bw.write(zeros[:remaining])
}
