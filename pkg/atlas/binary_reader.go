package atlas

import (
	"encoding/binary"
	"fmt"
	"io"
)

// BinaryImage is one decoded record from a binary descriptor.
type BinaryImage struct {
	Name          string
	X, Y          int
	Width, Height int

	FrameX, FrameY int
	FrameW, FrameH int

	Rotated bool
}

// BinaryTexture is a decoded atlas page descriptor.
type BinaryTexture struct {
	Name string

	// Count is the record count from the header. It can exceed
	// len(Images) when the encoder skipped oversized records.
	Count int

	Images []BinaryImage
}

// ReadBinaryFile decodes a multi-page descriptor written by
// WriteBinaryFile: an int16 page count followed by the pages. One
// position-tracking reader spans the whole stream so padding is
// consumed at the same file-absolute offsets the encoder emitted it.
func ReadBinaryFile(r io.Reader, opts BinaryOptions) ([]*BinaryTexture, error) {
	if err := checkAlignment(opts); err != nil {
		return nil, err
	}

	br := &binaryReader{r: r}
	count := int(br.readInt16())
	if br.err != nil {
		return nil, br.err
	}

	pages := make([]*BinaryTexture, 0, count)
	for i := 0; i < count; i++ {
		tex, err := readBinary(br, opts)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, tex)
	}
	return pages, nil
}

// ReadBinary decodes one atlas page written by WriteBinary with the
// same options. Trim, Rotate, Version and Alignment must match the
// encoding side; the stream does not describe its own field layout
// beyond the version tag. The reader consumes exactly the page's
// bytes, never ahead of it.
func ReadBinary(r io.Reader, opts BinaryOptions) (*BinaryTexture, error) {
	if err := checkAlignment(opts); err != nil {
		return nil, err
	}
	return readBinary(&binaryReader{r: r}, opts)
}

func readBinary(br *binaryReader, opts BinaryOptions) (*BinaryTexture, error) {
	tex := &BinaryTexture{}

	if opts.Version >= 0 {
		version := int(br.readInt16())
		if br.err == nil && version != opts.Version {
			return nil, fmt.Errorf("binary version mismatch: stream has %d, expected %d", version, opts.Version)
		}
		tex.Name = br.readString()
	} else {
		tex.Name = br.readCString()
	}

	tex.Count = int(br.readInt16())
	if opts.Version >= 0 {
		br.skipAlign(opts.Alignment)
	}

	for i := 0; i < tex.Count && br.err == nil; i++ {
		var img BinaryImage

		if opts.Version == LegacyVersion {
			img.Name = br.readCString()
		}

		img.X = int(br.readInt16())
		img.Y = int(br.readInt16())
		img.Width = int(br.readInt16())
		img.Height = int(br.readInt16())
		if opts.Trim {
			img.FrameX = int(br.readInt16())
			img.FrameY = int(br.readInt16())
			img.FrameW = int(br.readInt16())
			img.FrameH = int(br.readInt16())
		}
		if opts.Rotate {
			img.Rotated = br.readByte() != 0
		}

		if opts.Version >= 0 {
			img.Name = br.readString()
			br.skipAlign(opts.Alignment)
		}

		if br.err != nil {
			break
		}
		tex.Images = append(tex.Images, img)
	}

	if br.err != nil && br.err != io.EOF {
		return nil, br.err
	}
	return tex, nil
}

// binaryReader mirrors binaryWriter: position tracking for alignment,
// latched first error.
type binaryReader struct {
	r   io.Reader
	pos int64
	err error
}

func (br *binaryReader) read(buf []byte) {
	if br.err != nil {
		return
	}
	n, err := io.ReadFull(br.r, buf)
	br.pos += int64(n)
	br.err = err
}

func (br *binaryReader) readByte() byte {
	var buf [1]byte
	br.read(buf[:])
	return buf[0]
}

func (br *binaryReader) readInt16() int16 {
	var buf [2]byte
	br.read(buf[:])
	return int16(binary.LittleEndian.Uint16(buf[:]))
}

func (br *binaryReader) readString() string {
	length := int(br.readInt16())
	if br.err != nil || length < 0 {
		return ""
	}
	buf := make([]byte, length)
	br.read(buf)
	return string(buf)
}

func (br *binaryReader) readCString() string {
	var out []byte
	for {
		b := br.readByte()
		if br.err != nil || b == 0 {
			return string(out)
		}
		out = append(out, b)
	}
}

// skipAlign consumes the padding block written by binaryWriter.align:
// always at least one byte, up to a full alignment unit.
func (br *binaryReader) skipAlign(alignment int) {
	remaining := alignment - int(br.pos%int64(alignment))
	buf := make([]byte, remaining)
	br.read(buf)
}
