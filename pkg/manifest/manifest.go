// Package manifest loads crunch.toml project files.
//
// A manifest describes one atlas build: where the source images live,
// where outputs go, and the packing and encoding options. Relative
// paths are resolved against the manifest's directory so a project can
// be built from anywhere.
package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Arcnor/crunch/pkg/atlas"
	"github.com/Arcnor/crunch/pkg/binpack"
	"github.com/Arcnor/crunch/pkg/errors"
	"github.com/Arcnor/crunch/pkg/imageio"
)

// Defaults applied to fields the manifest leaves unset.
const (
	DefaultSize      = 4096
	DefaultPadding   = 1
	DefaultAlgorithm = "maxrects"
	DefaultImage     = "png"

	// DefaultBinaryAlignment applies when a versioned binary layout is
	// selected without an explicit alignment. A record needs
	// 2 + len(name) + 8 bytes plus trim and rotation fields, so the
	// unit must leave room for real sprite names; 64 covers names up
	// to 45 characters with every optional field on.
	DefaultBinaryAlignment = 64
)

// MaxSize bounds the atlas canvas; descriptor coordinates are encoded
// as int16 so anything larger cannot be represented.
const MaxSize = 32767

// Manifest is a parsed crunch.toml.
type Manifest struct {
	Name    string   `toml:"name"`
	Inputs  []string `toml:"inputs"`
	Output  string   `toml:"output"`
	Pack    Pack     `toml:"pack"`
	Outputs Outputs  `toml:"outputs"`
}

// Pack holds the placement options.
type Pack struct {
	Size      int    `toml:"size"`
	Padding   *int   `toml:"padding"`
	Unique    bool   `toml:"unique"`
	Rotate    bool   `toml:"rotate"`
	Trim      bool   `toml:"trim"`
	Algorithm string `toml:"algorithm"`
	Heuristic string `toml:"heuristic"`
}

// Outputs selects the descriptor and image formats to emit.
// BinaryVersion is a pointer so an absent key defaults to the legacy
// layout while an explicit 0 selects the first versioned one.
type Outputs struct {
	Image           string `toml:"image"`
	XML             bool   `toml:"xml"`
	JSON            bool   `toml:"json"`
	Binary          bool   `toml:"binary"`
	BinaryVersion   *int   `toml:"binary_version"`
	BinaryAlignment int    `toml:"binary_alignment"`
}

// Load parses and validates the manifest at path. Input and output
// paths come back resolved relative to the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "manifest %s", path)
		}
		return nil, err
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}

	m.applyDefaults(path)
	if err := m.validate(); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for i, input := range m.Inputs {
		if !filepath.IsAbs(input) {
			m.Inputs[i] = filepath.Join(dir, input)
		}
	}
	if !filepath.IsAbs(m.Output) {
		m.Output = filepath.Join(dir, m.Output)
	}
	return &m, nil
}

func (m *Manifest) applyDefaults(path string) {
	if m.Name == "" {
		base := filepath.Base(path)
		m.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if m.Output == "" {
		m.Output = "."
	}
	if m.Pack.Size == 0 {
		m.Pack.Size = DefaultSize
	}
	if m.Pack.Padding == nil {
		pad := DefaultPadding
		m.Pack.Padding = &pad
	}
	if m.Pack.Algorithm == "" {
		m.Pack.Algorithm = DefaultAlgorithm
	}
	if m.Pack.Heuristic == "" {
		m.Pack.Heuristic = binpack.BestShortSideFit.String()
	}
	if m.Outputs.Image == "" {
		m.Outputs.Image = DefaultImage
	}
	if m.Outputs.BinaryVersion == nil {
		version := atlas.LegacyVersion
		m.Outputs.BinaryVersion = &version
	}
	if m.Outputs.BinaryAlignment == 0 {
		m.Outputs.BinaryAlignment = DefaultBinaryAlignment
	}
}

func (m *Manifest) validate() error {
	if len(m.Inputs) == 0 {
		return errors.New(errors.ErrCodeInvalidManifest, "manifest has no inputs")
	}
	if m.Pack.Size < 1 || m.Pack.Size > MaxSize {
		return errors.New(errors.ErrCodeInvalidSize,
			"size %d out of range [1,%d]", m.Pack.Size, MaxSize)
	}
	if *m.Pack.Padding < 0 {
		return errors.New(errors.ErrCodeInvalidManifest, "padding must not be negative")
	}
	switch m.Pack.Algorithm {
	case "maxrects", "skyline":
	default:
		return errors.New(errors.ErrCodeInvalidManifest,
			"unknown algorithm %q", m.Pack.Algorithm)
	}
	if _, ok := binpack.ParseHeuristic(m.Pack.Heuristic); !ok {
		return errors.New(errors.ErrCodeInvalidManifest,
			"unknown heuristic %q", m.Pack.Heuristic)
	}
	if !imageio.ValidImageFormat(m.Outputs.Image) {
		return errors.New(errors.ErrCodeInvalidFormat,
			"unsupported image format %q", m.Outputs.Image)
	}
	if m.Outputs.Binary {
		if *m.Outputs.BinaryVersion < atlas.LegacyVersion {
			return errors.New(errors.ErrCodeInvalidManifest,
				"binary_version %d is invalid", *m.Outputs.BinaryVersion)
		}
		if *m.Outputs.BinaryVersion >= 0 &&
			(m.Outputs.BinaryAlignment < 1 || m.Outputs.BinaryAlignment > 4096) {
			return errors.New(errors.ErrCodeInvalidManifest,
				"binary_alignment %d out of range [1,4096]", m.Outputs.BinaryAlignment)
		}
	}
	return nil
}

// Heuristic returns the parsed placement heuristic.
func (m *Manifest) Heuristic() binpack.Heuristic {
	h, _ := binpack.ParseHeuristic(m.Pack.Heuristic)
	return h
}

// Padding returns the resolved padding value.
func (m *Manifest) Padding() int {
	return *m.Pack.Padding
}

// BinaryVersion returns the resolved binary layout version.
func (m *Manifest) BinaryVersion() int {
	return *m.Outputs.BinaryVersion
}
