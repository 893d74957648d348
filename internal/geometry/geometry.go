// Package geometry computes the pure pyramid geometry: zoom-level counts,
// tile counts, and tile bounding rectangles. None of these functions touch
// pixels or I/O — they are total functions over (width, height), grounded in
// the same style as the teacher's internal/tile/zoom.go, generalized from a
// single auto-zoom heuristic to the full closed-form pyramid math this spec
// requires.
package geometry

import (
	"image"
	"math"
)

// TileSize is the fixed square tile side, T in the spec.
const TileSize = 256

// ZoomLevels returns Z, the top (full-resolution) zoom level for an image of
// the given logical dimensions. Level 0 is always the single-tile thumbnail.
func ZoomLevels(width, height int) int {
	maxDim := width
	if height > maxDim {
		maxDim = height
	}
	if maxDim < TileSize {
		maxDim = TileSize
	}
	return int(math.Ceil(math.Log2(float64(maxDim)) - math.Log2(float64(TileSize))))
}

// LevelDimensions returns the (width, height) of zoom level z, given the
// full-resolution (level Z) dimensions. Each level below Z is obtained from
// the level above by halving with ceiling rounding.
func LevelDimensions(fullWidth, fullHeight, z, maxZ int) (int, int) {
	w, h := fullWidth, fullHeight
	for level := maxZ; level > z; level-- {
		w = ceilDiv(w, 2)
		h = ceilDiv(h, 2)
	}
	return w, h
}

// TileCount returns the total number of tiles across every level of the
// pyramid for an image of the given logical dimensions, including the
// single level-0 thumbnail tile.
func TileCount(width, height int) int {
	w, h := width, height
	total := 1 // level 0
	for w > TileSize || h > TileSize {
		total += tilesAcross(w) * tilesAcross(h)
		w = ceilDiv(w, 2)
		h = ceilDiv(h, 2)
	}
	return total
}

// tilesAcross returns the number of tile columns (or rows, given the other
// dimension) needed to cover a span of n pixels at TileSize.
func tilesAcross(n int) int {
	return ceilDiv(n, TileSize)
}

// TilesAcross returns the number of tile columns needed to cover a level of
// the given width.
func TilesAcross(width int) int {
	return tilesAcross(width)
}

// TilesDown returns the number of tile rows needed to cover a level of the
// given height.
func TilesDown(height int) int {
	return tilesAcross(height)
}

// TileBounds returns the pixel rectangle of tile (x, y) within a level of the
// given dimensions. Tiles beyond the level's extent yield a zero-area
// rectangle; callers must skip those.
func TileBounds(width, height, x, y int) image.Rectangle {
	minX := x * TileSize
	minY := y * TileSize
	if minX >= width || minY >= height {
		return image.Rectangle{}
	}
	w := TileSize
	if minX+w > width {
		w = width - minX
	}
	h := TileSize
	if minY+h > height {
		h = height - minY
	}
	return image.Rect(minX, minY, minX+w, minY+h)
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}
