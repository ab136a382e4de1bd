package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Arcnor/crunch/pkg/atlas"
	"github.com/Arcnor/crunch/pkg/binpack"
	"github.com/Arcnor/crunch/pkg/cache"
	"github.com/Arcnor/crunch/pkg/errors"
	"github.com/Arcnor/crunch/pkg/imageio"
	"github.com/Arcnor/crunch/pkg/observability"
)

// Runner executes atlas builds with result caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger}
}

// cachedBuild is the payload stored per cache key. A hit is only
// honored while every recorded output file still exists on disk.
type cachedBuild struct {
	Pages []PageInfo `json:"pages"`
	Files []string   `json:"files"`
	Stats Stats      `json:"stats"`
}

// Run executes load → pack → encode for one atlas build.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.validateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	loadStart := time.Now()
	observability.Build().OnLoadStart(ctx, opts.Inputs)
	bitmaps, err := imageio.LoadAll(opts.Inputs, opts.Trim)
	observability.Build().OnLoadComplete(ctx, len(bitmaps), time.Since(loadStart), err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if len(bitmaps) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no images found in inputs")
	}
	loadTime := time.Since(loadStart)

	logger.Info("loaded bitmaps", "count", len(bitmaps), "duration", loadTime)

	key := r.buildKey(opts, bitmaps)
	if !opts.Force {
		if result, ok := r.lookup(ctx, key); ok {
			logger.Info("outputs up to date", "files", len(result.Files))
			result.Stats.LoadTime = loadTime
			result.Stats.Bitmaps = len(bitmaps)
			return result, nil
		}
	}

	packStart := time.Now()
	observability.Build().OnPackStart(ctx, len(bitmaps), opts.Size)
	pages, err := r.packPages(opts, bitmaps)
	observability.Build().OnPackComplete(ctx, len(pages), time.Since(packStart), err)
	if err != nil {
		return nil, err
	}
	packTime := time.Since(packStart)

	result := &Result{
		Stats: Stats{
			Bitmaps:  len(bitmaps),
			LoadTime: loadTime,
			PackTime: packTime,
		},
	}
	for _, page := range pages {
		result.Pages = append(result.Pages, PageInfo{
			Name:    page.name,
			Width:   page.packer.Width(),
			Height:  page.packer.Height(),
			Sprites: len(page.packer.Entries()),
		})
		for _, entry := range page.packer.Entries() {
			if entry.Placement.DupIndex >= 0 {
				result.Stats.Duplicates++
			}
		}
	}

	logger.Info("packed atlas",
		"pages", len(pages),
		"duplicates", result.Stats.Duplicates,
		"duration", packTime)

	encodeStart := time.Now()
	observability.Build().OnEncodeStart(ctx, opts.Name)
	err = r.encode(opts, pages, result)
	observability.Build().OnEncodeComplete(ctx, opts.Name, len(result.Files), time.Since(encodeStart), err)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	result.Stats.EncodeTime = time.Since(encodeStart)

	logger.Info("wrote outputs",
		"files", len(result.Files),
		"duration", result.Stats.EncodeTime)

	r.store(ctx, key, result)
	return result, nil
}

// buildKey derives the cache key from the options fingerprint and the
// content hash of every input bitmap.
func (r *Runner) buildKey(opts Options, bitmaps []*atlas.Bitmap) string {
	fingerprint := opts
	fingerprint.Force = false
	fingerprint.Logger = nil

	hashes := make([]string, 0, len(bitmaps))
	for _, bmp := range bitmaps {
		hashes = append(hashes, bmp.Name+":"+bmp.ContentHash())
	}
	return cache.Key("build", fingerprint, hashes)
}

// lookup returns a cached result when the key hits and all recorded
// output files still exist.
func (r *Runner) lookup(ctx context.Context, key string) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "build")
		return nil, false
	}
	var cached cachedBuild
	if err := json.Unmarshal(data, &cached); err != nil {
		observability.Cache().OnCacheMiss(ctx, "build")
		return nil, false
	}
	for _, file := range cached.Files {
		if _, err := os.Stat(file); err != nil {
			observability.Cache().OnCacheMiss(ctx, "build")
			return nil, false
		}
	}
	observability.Cache().OnCacheHit(ctx, "build")
	return &Result{
		Pages:  cached.Pages,
		Files:  cached.Files,
		Cached: true,
		Stats:  cached.Stats,
	}, true
}

func (r *Runner) store(ctx context.Context, key string, result *Result) {
	data, err := json.Marshal(cachedBuild{
		Pages: result.Pages,
		Files: result.Files,
		Stats: Stats{Duplicates: result.Stats.Duplicates},
	})
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, 0); err != nil {
		r.Logger.Debug("cache store failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "build", len(data))
}

// page pairs a packed page with its derived name.
type page struct {
	name   string
	packer *atlas.Packer
}

// packPages packs bitmaps onto as many pages as needed. Bitmaps are
// sorted by ascending area first; the packer consumes from the end of
// the list, so the largest bitmaps are placed while the page is still
// empty.
func (r *Runner) packPages(opts Options, bitmaps []*atlas.Bitmap) ([]page, error) {
	sort.SliceStable(bitmaps, func(i, j int) bool {
		return bitmaps[i].Width*bitmaps[i].Height < bitmaps[j].Width*bitmaps[j].Height
	})

	packerOpts := []atlas.Option{
		atlas.WithPadding(opts.Padding),
		atlas.WithHeuristic(opts.Heuristic),
		atlas.WithLogger(opts.Logger),
	}
	if opts.Unique {
		packerOpts = append(packerOpts, atlas.WithUnique())
	}
	if opts.Rotate {
		packerOpts = append(packerOpts, atlas.WithRotation())
	}

	var pages []page
	remaining := bitmaps
	for len(remaining) > 0 {
		pageOpts := packerOpts
		if opts.Algorithm == "skyline" {
			pageOpts = append(pageOpts, atlas.WithBin(binpack.NewSkyline(opts.Size, opts.Size)))
		}
		packer := atlas.NewPacker(opts.Size, opts.Size, pageOpts...)

		rest := packer.Pack(remaining)
		if len(packer.Entries()) == 0 {
			bmp := remaining[len(remaining)-1]
			return nil, errors.New(errors.ErrCodeBitmapTooLarge,
				"%s (%dx%d with padding %d) does not fit a %dx%d page",
				bmp.Name, bmp.Width, bmp.Height, opts.Padding, opts.Size, opts.Size)
		}
		pages = append(pages, page{name: pageName(opts.Name, len(pages)), packer: packer})
		remaining = rest
	}
	return pages, nil
}

// pageName derives per-page output names: name, name-1, name-2, ...
func pageName(name string, index int) string {
	if index == 0 {
		return name
	}
	return fmt.Sprintf("%s-%d", name, index)
}

// encode writes the selected outputs for all pages and records the
// written paths on result.
func (r *Runner) encode(opts Options, pages []page, result *Result) error {
	descOpts := atlas.DescriptorOptions{Trim: opts.Trim, Rotate: opts.Rotate}

	for _, p := range pages {
		path := filepath.Join(opts.Output, p.name+"."+opts.Image)
		if err := imageio.WriteImage(path, p.packer.RenderImage()); err != nil {
			return err
		}
		result.Files = append(result.Files, path)
	}

	if opts.XML {
		path := filepath.Join(opts.Output, opts.Name+".xml")
		if err := writeFile(path, func(w io.Writer) error {
			if _, err := io.WriteString(w, "<atlas>\n"); err != nil {
				return err
			}
			for _, p := range pages {
				if err := p.packer.WriteXML(w, p.name, descOpts); err != nil {
					return err
				}
			}
			_, err := io.WriteString(w, "</atlas>\n")
			return err
		}); err != nil {
			return err
		}
		result.Files = append(result.Files, path)
	}

	if opts.JSON {
		path := filepath.Join(opts.Output, opts.Name+".json")
		if err := writeFile(path, func(w io.Writer) error {
			if _, err := io.WriteString(w, "{\n\t\"textures\":[\n"); err != nil {
				return err
			}
			for i, p := range pages {
				if _, err := io.WriteString(w, "\t\t{\n"); err != nil {
					return err
				}
				if err := p.packer.WriteJSON(w, p.name, descOpts); err != nil {
					return err
				}
				suffix := "\t\t},\n"
				if i == len(pages)-1 {
					suffix = "\t\t}\n"
				}
				if _, err := io.WriteString(w, suffix); err != nil {
					return err
				}
			}
			_, err := io.WriteString(w, "\t]\n}\n")
			return err
		}); err != nil {
			return err
		}
		result.Files = append(result.Files, path)
	}

	if opts.Binary {
		binOpts := atlas.BinaryOptions{
			Trim:      opts.Trim,
			Rotate:    opts.Rotate,
			Version:   opts.BinaryVersion,
			Alignment: opts.BinaryAlignment,
			Logger:    opts.Logger,
		}
		binPages := make([]atlas.BinaryPage, 0, len(pages))
		for _, p := range pages {
			binPages = append(binPages, atlas.BinaryPage{Name: p.name, Packer: p.packer})
		}
		path := filepath.Join(opts.Output, opts.Name+".bin")
		if err := writeFile(path, func(w io.Writer) error {
			// Oversized records are skipped and logged inside the
			// encoder; the write itself still succeeds.
			_, err := atlas.WriteBinaryFile(w, binPages, binOpts)
			return err
		}); err != nil {
			return err
		}
		result.Files = append(result.Files, path)
	}

	return nil
}

// writeFile creates path (and parents), hands a buffered writer to fn,
// and flushes on success.
func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
