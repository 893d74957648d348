package geometry

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZoomLevels(t *testing.T) {
	cases := []struct {
		w, h, want int
	}{
		{256, 256, 0},
		{257, 256, 1},
		{800, 600, 2},
		{1, 1, 0},
		{4096, 4096, 4},
	}
	for _, c := range cases {
		require.Equal(t, c.want, ZoomLevels(c.w, c.h), "ZoomLevels(%d,%d)", c.w, c.h)
	}
}

func TestTileCountMatchesLevelSum(t *testing.T) {
	// tileCount must equal 1 (for level 0) plus, for every level whose
	// dimensions exceed one tile, the tiles needed to cover that level.
	cases := []struct{ w, h int }{
		{256, 256},
		{800, 600},
		{4096, 4096},
		{1, 1},
		{257, 1},
	}
	for _, c := range cases {
		got := TileCount(c.w, c.h)

		want := 1
		w, h := c.w, c.h
		for w > TileSize || h > TileSize {
			want += TilesAcross(w) * TilesDown(h)
			w = ceilDiv(w, 2)
			h = ceilDiv(h, 2)
		}
		require.Equal(t, want, got, "TileCount(%d,%d)", c.w, c.h)
	}
}

func TestTileCountNeverNegativeOrZero(t *testing.T) {
	for _, dim := range []int{1, 2, 255, 256, 257, 1000, 10000} {
		require.GreaterOrEqual(t, TileCount(dim, dim), 1)
	}
}

func TestTileBoundsWithinExtent(t *testing.T) {
	got := TileBounds(800, 600, 0, 0)
	require.Equal(t, image.Rect(0, 0, 256, 256), got)

	// Rightmost column of an 800-wide level is a partial tile.
	got = TileBounds(800, 600, 3, 0)
	require.Equal(t, image.Rect(768, 0, 800, 256), got)

	// Bottom row of a 600-tall level is a partial tile.
	got = TileBounds(800, 600, 0, 2)
	require.Equal(t, image.Rect(0, 512, 256, 600), got)
}

func TestTileBoundsOutOfRangeIsZeroArea(t *testing.T) {
	got := TileBounds(800, 600, 4, 0)
	require.Equal(t, 0, got.Dx()*got.Dy())

	got = TileBounds(800, 600, 0, 3)
	require.Equal(t, 0, got.Dx()*got.Dy())
}

func TestLevelDimensionsHalveWithCeiling(t *testing.T) {
	w, h := LevelDimensions(801, 601, 0, 2)
	require.Equal(t, 201, w)
	require.Equal(t, 151, h)

	w, h = LevelDimensions(801, 601, 2, 2)
	require.Equal(t, 801, w)
	require.Equal(t, 601, h)
}
