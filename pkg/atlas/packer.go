package atlas

import (
	"github.com/charmbracelet/log"

	"github.com/Arcnor/crunch/pkg/binpack"
)

// Placement records where a bitmap landed on the canvas.
type Placement struct {
	X, Y int

	// Rotated is set when the bitmap was placed rotated 90°.
	Rotated bool

	// DupIndex is the entry index of the canonical bitmap this entry
	// duplicates, or -1 when the entry owns pixel data at (X, Y). For a
	// duplicate, X, Y and Rotated are copied verbatim from the
	// canonical entry.
	DupIndex int
}

// Entry pairs a bitmap with its placement. Keeping both in one record
// means an entry and its placement cannot drift apart, even across the
// binary encoder's name sort.
type Entry struct {
	Bitmap    *Bitmap
	Placement Placement
}

// Packer drives a single packing pass over one atlas page.
//
// A Packer is single-use: create one per page, call Pack once, then
// hand the result to the encoders. It is not safe for concurrent use.
type Packer struct {
	bin       binpack.Bin
	heuristic binpack.Heuristic
	width     int
	height    int
	pad       int
	unique    bool
	rotate    bool
	logger    *log.Logger

	entries  []Entry
	dupIndex map[string]int
	boundW   int
	boundH   int
}

// Option configures a Packer.
type Option func(*Packer)

// WithPadding reserves pad pixels of margin around each placed bitmap
// to avoid sampling bleed between neighbors.
func WithPadding(pad int) Option {
	return func(p *Packer) { p.pad = pad }
}

// WithUnique enables duplicate detection: pixel-identical bitmaps share
// the canonical placement instead of consuming canvas area.
func WithUnique() Option {
	return func(p *Packer) { p.unique = true }
}

// WithRotation allows 90° rotation during placement.
func WithRotation() Option {
	return func(p *Packer) { p.rotate = true }
}

// WithHeuristic selects the bin's position-scoring rule.
// Default: binpack.BestShortSideFit.
func WithHeuristic(h binpack.Heuristic) Option {
	return func(p *Packer) { p.heuristic = h }
}

// WithBin substitutes the rectangle bin strategy. The bin must already
// be sized to the packer's canvas. Default: binpack.NewMaxRects.
func WithBin(bin binpack.Bin) Option {
	return func(p *Packer) { p.bin = bin }
}

// WithLogger enables per-bitmap debug logging during the packing pass.
func WithLogger(logger *log.Logger) Option {
	return func(p *Packer) { p.logger = logger }
}

// NewPacker creates a packer for a canvas of at most width×height
// pixels. The final canvas may be smaller: after packing, each
// dimension shrinks by halving as far as the placed content allows.
func NewPacker(width, height int, opts ...Option) *Packer {
	p := &Packer{
		width:     width,
		height:    height,
		heuristic: binpack.BestShortSideFit,
		dupIndex:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bin == nil {
		p.bin = binpack.NewMaxRects(width, height)
	}
	return p
}

// Pack consumes bitmaps from the end of the list, placing each until
// the canvas is exhausted. It returns the unconsumed remainder; a
// non-empty remainder is a normal stop condition, not an error, and the
// caller decides whether to pack the rest onto another page.
func (p *Packer) Pack(bitmaps []*Bitmap) []*Bitmap {
	for len(bitmaps) > 0 {
		bmp := bitmaps[len(bitmaps)-1]

		if p.logger != nil {
			p.logger.Debug("packing", "remaining", len(bitmaps), "name", bmp.Name)
		}

		if p.unique {
			if i, ok := p.dupIndex[bmp.ContentHash()]; ok && bmp.Equal(p.entries[i].Bitmap) {
				placement := p.entries[i].Placement
				placement.DupIndex = i
				p.entries = append(p.entries, Entry{Bitmap: bmp, Placement: placement})
				bitmaps = bitmaps[:len(bitmaps)-1]
				continue
			}
		}

		rect := p.bin.Insert(bmp.Width+p.pad, bmp.Height+p.pad, p.rotate, p.heuristic)
		if rect.Empty() {
			break
		}

		if p.unique {
			p.dupIndex[bmp.ContentHash()] = len(p.entries)
		}

		p.entries = append(p.entries, Entry{
			Bitmap: bmp,
			Placement: Placement{
				X: rect.X,
				Y: rect.Y,
				// The bin reports a flip only through swapped dimensions.
				Rotated:  p.rotate && bmp.Width != rect.Width-p.pad,
				DupIndex: -1,
			},
		})
		bitmaps = bitmaps[:len(bitmaps)-1]

		p.boundW = max(p.boundW, rect.Right())
		p.boundH = max(p.boundH, rect.Bottom())
	}

	p.shrink()
	return bitmaps
}

// shrink halves each canvas dimension independently while the halved
// value still covers the tight bound of all placements.
func (p *Packer) shrink() {
	if p.boundW > 0 {
		for p.width/2 >= p.boundW {
			p.width /= 2
		}
	}
	if p.boundH > 0 {
		for p.height/2 >= p.boundH {
			p.height /= 2
		}
	}
}

// Entries returns the packed entries in placement order. The binary
// encoder reorders this slice by name; all other encoders emit it
// as-is.
func (p *Packer) Entries() []Entry { return p.entries }

// Width returns the canvas width after shrinking.
func (p *Packer) Width() int { return p.width }

// Height returns the canvas height after shrinking.
func (p *Packer) Height() int { return p.height }
