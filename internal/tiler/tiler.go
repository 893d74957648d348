// Package tiler is the Orchestrator: the public tile() entry point that
// opens a source image, drives the Pyramid Builder, and writes the
// resulting archive.
//
// Grounded in the teacher's internal/tile.Generate, which opens sources,
// builds a Config, runs the zoom loop, and returns Stats -- generalized
// here to a single-source, single-threaded invocation per §5 of the spec,
// with the teacher's atomic tile counter and log.Printf progress lines
// replaced by zerolog per the ambient-stack decision.
package tiler

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/rasterkit/iview2tiler/internal/archive"
	"github.com/rasterkit/iview2tiler/internal/encode"
	"github.com/rasterkit/iview2tiler/internal/geometry"
	"github.com/rasterkit/iview2tiler/internal/ioerr"
	"github.com/rasterkit/iview2tiler/internal/manifest"
	"github.com/rasterkit/iview2tiler/internal/orient"
	"github.com/rasterkit/iview2tiler/internal/progress"
	"github.com/rasterkit/iview2tiler/internal/rasterio"
)

// Strategy selects which Pyramid Builder algorithm processes level Z.
type Strategy int

const (
	// StrategyAuto picks in-memory or memory-saving based on source pixel
	// count, per Options.MemorySavingThreshold.
	StrategyAuto Strategy = iota
	StrategyInMemory
	StrategyMemorySaving
)

// defaultMemorySavingThreshold is 4096*4096 pixels: an order of magnitude
// above the teacher's own COG tile-cache sizing, chosen so ordinary
// photographs take the simpler in-memory path and only genuinely large
// scans pay the megatile bookkeeping cost.
const defaultMemorySavingThreshold = 4096 * 4096

// defaultMegaTileSize is the memory-saving strategy's strip height: a
// power-of-two multiple of geometry.TileSize, large enough to amortise
// decoder setup.
const defaultMegaTileSize = 16 * geometry.TileSize

// Options configures a single tile() invocation. The zero value is usable:
// every field defaults per field comment.
type Options struct {
	// Quality is the archive's JPEG tile quality, 1-100. Zero uses
	// encode.DefaultQuality.
	Quality int

	// MegaTileSize is the memory-saving strategy's strip height in
	// pixels. Zero uses defaultMegaTileSize. Must be a positive multiple
	// of geometry.TileSize.
	MegaTileSize int

	// MemorySavingThreshold is the Wl*Hl pixel count above which
	// StrategyAuto selects the memory-saving builder. Zero uses
	// defaultMemorySavingThreshold.
	MemorySavingThreshold int64

	// ForceStrategy overrides StrategyAuto's heuristic, for tests that
	// need to exercise one strategy regardless of image size.
	ForceStrategy Strategy
}

func (o Options) quality() int {
	if o.Quality <= 0 {
		return encode.DefaultQuality
	}
	return o.Quality
}

func (o Options) megaTileSize() int {
	if o.MegaTileSize <= 0 {
		return defaultMegaTileSize
	}
	return o.MegaTileSize
}

func (o Options) memorySavingThreshold() int64 {
	if o.MemorySavingThreshold <= 0 {
		return defaultMemorySavingThreshold
	}
	return o.MemorySavingThreshold
}

// LifecycleHook is invoked around decoder acquisition, the host's chance to
// observe (or inject delay/fault into) the open step.
type LifecycleHook interface {
	PreImageReaderCreated()
	PostImageReaderCreated()
}

type noopHook struct{}

func (noopHook) PreImageReaderCreated()  {}
func (noopHook) PostImageReaderCreated() {}

// NoopHook is the default LifecycleHook, used when the caller supplies none.
var NoopHook LifecycleHook = noopHook{}

// PyramidProps describes the pyramid a Tile call produced.
type PyramidProps struct {
	Width      int
	Height     int
	ZoomLevel  int
	TilesCount int64
}

// Tile runs the full pipeline: open sourcePath, compute the pyramid
// geometry, drive the Pyramid Builder, and write archivePath. derivate and
// relPath populate the manifest's identifying attributes (both may be
// empty when no derivative context applies).
func Tile(sourcePath, archivePath, derivate, relPath string, opts Options, hook LifecycleHook) (PyramidProps, error) {
	if hook == nil {
		hook = NoopHook
	}

	hook.PreImageReaderCreated()
	dec, err := rasterio.Open(sourcePath)
	if err != nil {
		hook.PostImageReaderCreated()
		return PyramidProps{}, fmt.Errorf("tiler: opening %s: %w", sourcePath, err)
	}
	hook.PostImageReaderCreated()
	defer dec.Close()

	exifOrientation := dec.Orientation()
	o, err := orient.FromExif(exifOrientation)
	if err != nil {
		log.Warn().Str("source", sourcePath).Err(err).Msg("tiler: degraded orientation to 1")
		o, _ = orient.FromExif(1)
	} else {
		log.Info().Str("source", sourcePath).Int("exif", exifOrientation).Msg("tiler: read orientation")
	}

	wp, hp := dec.Dimensions()
	wl, hl := o.LogicalDimensions(wp, hp)
	zoomLevel := geometry.ZoomLevels(wl, hl)

	pkg, err := archive.Create(archivePath, opts.quality())
	if err != nil {
		return PyramidProps{}, ioerr.New(ioerr.IO, archivePath, err)
	}

	meter := progress.NewMeter()
	var tileCounter atomic.Int64

	b := &builder{
		decoder:     dec,
		orientation: o,
		wl:          wl,
		hl:          hl,
		zoomLevel:   zoomLevel,
		packager:    pkg,
		meter:       meter,
		tileCounter: &tileCounter,
		source:      sourcePath,
	}

	strategy := opts.ForceStrategy
	if strategy == StrategyAuto {
		if int64(wl)*int64(hl) > opts.memorySavingThreshold() {
			strategy = StrategyMemorySaving
		} else {
			strategy = StrategyInMemory
		}
	}

	var buildErr error
	switch strategy {
	case StrategyMemorySaving:
		log.Info().Str("source", sourcePath).Int("width", wl).Int("height", hl).Msg("tiler: memory-saving strategy")
		buildErr = b.buildMemorySaving(opts.megaTileSize())
	default:
		log.Info().Str("source", sourcePath).Int("width", wl).Int("height", hl).Msg("tiler: in-memory strategy")
		buildErr = b.buildInMemory()
	}
	if buildErr != nil {
		pkg.Close()
		return PyramidProps{}, buildErr
	}

	info := manifest.ImageInfo{
		Derivate:  derivate,
		Path:      relPath,
		Tiles:     int(tileCounter.Load()),
		ZoomLevel: zoomLevel,
		Height:    hl,
		Width:     wl,
	}
	data, err := manifest.Marshal(info)
	if err != nil {
		pkg.Close()
		return PyramidProps{}, ioerr.New(ioerr.Internal, archivePath, err)
	}
	if err := pkg.WriteManifest(data); err != nil {
		pkg.Close()
		return PyramidProps{}, ioerr.New(ioerr.IO, archivePath, err)
	}

	if err := pkg.Close(); err != nil {
		return PyramidProps{}, ioerr.New(ioerr.IO, archivePath, err)
	}

	snap := meter.Snapshot()
	log.Info().
		Str("source", sourcePath).
		Int64("tiles", tileCounter.Load()).
		Float64("mpixels_per_sec", snap.MPixelsPerSecond).
		Dur("elapsed", snap.Elapsed).
		Msg("tiler: pyramid complete")

	return PyramidProps{
		Width:      wl,
		Height:     hl,
		ZoomLevel:  zoomLevel,
		TilesCount: tileCounter.Load(),
	}, nil
}
