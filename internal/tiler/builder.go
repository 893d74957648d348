package tiler

import (
	"fmt"
	"image"
	"image/draw"
	"sync/atomic"

	"github.com/disintegration/imaging"

	"github.com/rasterkit/iview2tiler/internal/archive"
	"github.com/rasterkit/iview2tiler/internal/geometry"
	"github.com/rasterkit/iview2tiler/internal/ioerr"
	"github.com/rasterkit/iview2tiler/internal/orient"
	"github.com/rasterkit/iview2tiler/internal/pixel"
	"github.com/rasterkit/iview2tiler/internal/progress"
	"github.com/rasterkit/iview2tiler/internal/rasterio"
)

// builder drives the pyramid's outer zoom loop shared by both strategies:
// for z from Z down to 0, emit every tile of level z in row-major order,
// then halve to obtain level z-1.
type builder struct {
	decoder     rasterio.Decoder
	orientation orient.Orientation
	wl, hl      int
	zoomLevel   int
	packager    *archive.Packager
	meter       *progress.Meter
	tileCounter *atomic.Int64
	source      string
}

// regionRead decodes the logical rectangle r via the decoder, applying
// orientation per §4.D: toPhysical, decode, Pixel Adapter, then the
// physical-to-logical dihedral transform (orient.Apply no-ops on its own
// for the identity orientation, so it is always safe to call).
func (b *builder) regionRead(r image.Rectangle) (image.Image, error) {
	rp := orient.ToPhysical(b.wl, b.hl, r, b.orientation)
	buf, err := b.decoder.DecodeRegion(rp)
	if err != nil {
		return nil, ioerr.At(ioerr.IO, b.source, fmt.Sprintf("region(%d,%d,%d,%d)", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y), err)
	}
	buf = pixel.Adapt(buf)
	return orient.Apply(buf, b.orientation), nil
}

// emitTile encodes img as tile (z, y, x) and records it, recording
// throughput and bumping the shared atomic counter on success.
func (b *builder) emitTile(z, y, x int, img image.Image) error {
	if _, err := b.packager.WriteTile(z, y, x, img); err != nil {
		return ioerr.At(ioerr.IO, b.source, fmt.Sprintf("z%d/y%d/x%d", z, y, x), err)
	}
	bounds := img.Bounds()
	b.meter.AddTile(bounds.Dx(), bounds.Dy())
	b.tileCounter.Add(1)
	return nil
}

type subImager interface {
	SubImage(image.Rectangle) image.Image
}

// crop returns the sub-rectangle r of img. When img supports SubImage (all
// buffers produced by this pipeline do: *image.Gray, *image.NRGBA) the view
// shares the backing array; otherwise a fresh RGBA copy is made.
func crop(img image.Image, r image.Rectangle) image.Image {
	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}

// halve resamples img to ceil(w/2) x ceil(h/2) using bicubic (CatmullRom)
// interpolation, the numeric policy §4.E specifies for level-to-level
// reduction.
func halve(img image.Image) image.Image {
	b := img.Bounds()
	nw := ceilDiv(b.Dx(), 2)
	nh := ceilDiv(b.Dy(), 2)
	return imaging.Resize(img, nw, nh, imaging.CatmullRom)
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

// emitLevelTiles slices level (absolute logical dimensions levelW x levelH,
// already materialized as img with img's own bounds matching levelW x
// levelH) into T x T tiles in row-major (y asc, x asc) order.
func (b *builder) emitLevelTiles(z int, img image.Image, levelW, levelH int) error {
	rows := geometry.TilesDown(levelH)
	cols := geometry.TilesAcross(levelW)
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			bounds := geometry.TileBounds(levelW, levelH, tx, ty)
			if bounds.Empty() {
				continue
			}
			tile := crop(img, bounds)
			if err := b.emitTile(z, ty, tx, tile); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildInMemory implements the in-memory strategy: level Z is a single
// full-image region read; each subsequent level is obtained by halving the
// level above, entirely in memory.
func (b *builder) buildInMemory() error {
	full, err := b.regionRead(image.Rect(0, 0, b.wl, b.hl))
	if err != nil {
		return err
	}
	return b.cascadeFromLevel(b.zoomLevel, full, b.wl, b.hl)
}

// cascadeFromLevel emits level z's tiles from the already-materialized
// level image, then repeatedly halves and emits for every level below z
// down to and including level 0.
func (b *builder) cascadeFromLevel(z int, levelImg image.Image, w, h int) error {
	for {
		if err := b.emitLevelTiles(z, levelImg, w, h); err != nil {
			return err
		}
		if z == 0 {
			return nil
		}
		levelImg = halve(levelImg)
		w, h = ceilDiv(w, 2), ceilDiv(h, 2)
		z--
	}
}

// buildMemorySaving implements the memory-saving strategy: level Z is
// streamed in horizontal megaTileSize-tall strips rather than materialized
// whole. Each strip's level-Z tiles are emitted directly; the strip is
// halved and appended to a growing level Z-1 buffer. Because every strip
// but the last has an even height (megaTileSize is a multiple of T, and T is
// even), halving strip-by-strip and concatenating the results gives the same
// dimensions as halving the whole level at once -- the only strip that can
// have an odd height is the final one (the "1-pixel megatile rest"), and
// since nothing follows it, ceil-rounding it alone introduces no
// misalignment. The pixels are not bit-identical to a one-pass halving: the
// bicubic filter does not read across a strip boundary, so rows next to a
// boundary can differ slightly. Level Z-1
// is at most a quarter the pixel count of level Z, so it is cheap to
// materialize fully; levels below it cascade with the in-memory helper.
func (b *builder) buildMemorySaving(megaTileSize int) error {
	z := b.zoomLevel
	if z == 0 {
		full, err := b.regionRead(image.Rect(0, 0, b.wl, b.hl))
		if err != nil {
			return err
		}
		return b.emitLevelTiles(0, full, b.wl, b.hl)
	}

	var reduced image.Image
	reducedW, reducedH := 0, 0

	y := 0
	for y < b.hl {
		stripH := megaTileSize
		if y+stripH > b.hl {
			stripH = b.hl - y
		}

		strip, err := b.regionRead(image.Rect(0, y, b.wl, y+stripH))
		if err != nil {
			return err
		}

		if err := b.emitStripTiles(z, strip, y, b.wl, b.hl); err != nil {
			return err
		}

		half := halve(strip)
		hb := half.Bounds()
		reduced = vconcat(reduced, half, reducedW, reducedH)
		reducedW = hb.Dx()
		reducedH += hb.Dy()

		y += stripH
	}

	return b.cascadeFromLevel(z-1, reduced, reducedW, reducedH)
}

// emitStripTiles emits the level-z tiles whose rows fall within the strip
// occupying absolute rows [stripY, stripY+striph) of a level of size
// levelW x levelH. megaTileSize is always a multiple of geometry.TileSize,
// so a strip never splits a tile row.
func (b *builder) emitStripTiles(z int, strip image.Image, stripY, levelW, levelH int) error {
	stripH := strip.Bounds().Dy()
	rowStart := stripY / geometry.TileSize
	rowEnd := geometry.TilesDown(stripY + stripH)
	cols := geometry.TilesAcross(levelW)

	for ty := rowStart; ty < rowEnd; ty++ {
		for tx := 0; tx < cols; tx++ {
			bounds := geometry.TileBounds(levelW, levelH, tx, ty)
			if bounds.Empty() {
				continue
			}
			local := bounds.Sub(image.Pt(0, stripY))
			tile := crop(strip, local)
			if err := b.emitTile(z, ty, tx, tile); err != nil {
				return err
			}
		}
	}
	return nil
}

// vconcat appends next below an existing accumulator buffer of width
// accW and height accH (accumulator may be nil on the first call).
func vconcat(acc image.Image, next image.Image, accW, accH int) image.Image {
	nb := next.Bounds()
	if acc == nil {
		dst := image.NewNRGBA(image.Rect(0, 0, nb.Dx(), nb.Dy()))
		draw.Draw(dst, dst.Bounds(), next, nb.Min, draw.Src)
		return dst
	}
	dst := image.NewNRGBA(image.Rect(0, 0, accW, accH+nb.Dy()))
	draw.Draw(dst, image.Rect(0, 0, accW, accH), acc, acc.Bounds().Min, draw.Src)
	draw.Draw(dst, image.Rect(0, accH, accW, accH+nb.Dy()), next, nb.Min, draw.Src)
	return dst
}
