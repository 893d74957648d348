package rasterio

import (
	"encoding/binary"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildMinimalTIFF constructs a tiny uncompressed, strip-based, 8-bit
// grayscale little-endian classic TIFF: width x height pixels, one strip
// per `rowsPerStrip` rows, pixel value = row index (so bands are easy to
// assert on). Only the tags buildIFD actually reads are emitted.
func buildMinimalTIFF(t *testing.T, width, height, rowsPerStrip int, orientation uint16) string {
	t.Helper()

	type tiffTag struct {
		tag, dtype uint16
		count      uint32
		value      uint32 // inline value or offset, filled in later for offset tags
	}

	nStrips := (height + rowsPerStrip - 1) / rowsPerStrip
	stripBytes := make([][]byte, nStrips)
	for s := 0; s < nStrips; s++ {
		rows := rowsPerStrip
		if (s+1)*rowsPerStrip > height {
			rows = height - s*rowsPerStrip
		}
		data := make([]byte, rows*width)
		for i := range data {
			data[i] = byte(s*rowsPerStrip + i/width)
		}
		stripBytes[s] = data
	}

	const headerSize = 8
	tags := []tiffTag{
		{256, dtLong, 1, uint32(width)},
		{257, dtLong, 1, uint32(height)},
		{258, dtShort, 1, 8},
		{259, dtShort, 1, 1}, // compression: none
		{262, dtShort, 1, 1}, // photometric: black is zero
		{277, dtShort, 1, 1}, // samples per pixel
		{278, dtLong, 1, uint32(rowsPerStrip)},
	}
	if orientation != 0 {
		tags = append(tags, tiffTag{274, dtShort, 1, uint32(orientation)})
	}
	// strip offsets/byte counts are filled in once we know layout
	tags = append(tags,
		tiffTag{273, dtLong, uint32(nStrips), 0}, // placeholder, offset tag
		tiffTag{279, dtLong, uint32(nStrips), 0},
	)

	numEntries := len(tags)
	ifdSize := 2 + numEntries*12 + 4
	ifdOffset := headerSize
	// external arrays (strip offsets / byte counts) follow the IFD if count>1
	stripOffsetsArrayOffset := ifdOffset + ifdSize
	stripByteCountsArrayOffset := stripOffsetsArrayOffset + nStrips*4
	stripDataStart := stripByteCountsArrayOffset + nStrips*4

	offsets := make([]uint32, nStrips)
	byteCounts := make([]uint32, nStrips)
	cur := stripDataStart
	for s := 0; s < nStrips; s++ {
		offsets[s] = uint32(cur)
		byteCounts[s] = uint32(len(stripBytes[s]))
		cur += len(stripBytes[s])
	}

	buf := make([]byte, cur)
	bo := binary.LittleEndian
	copy(buf[0:2], "II")
	bo.PutUint16(buf[2:4], 42)
	bo.PutUint32(buf[4:8], uint32(ifdOffset))

	pos := ifdOffset
	bo.PutUint16(buf[pos:pos+2], uint16(numEntries))
	pos += 2

	writeEntry := func(tag tiffTag, count uint32, val uint32) {
		bo.PutUint16(buf[pos:pos+2], tag.tag)
		bo.PutUint16(buf[pos+2:pos+4], tag.dtype)
		bo.PutUint32(buf[pos+4:pos+8], count)
		bo.PutUint32(buf[pos+8:pos+12], val)
		pos += 12
	}

	for _, tg := range tags {
		switch tg.tag {
		case 273:
			if nStrips == 1 {
				writeEntry(tg, 1, offsets[0])
			} else {
				writeEntry(tg, uint32(nStrips), uint32(stripOffsetsArrayOffset))
			}
		case 279:
			if nStrips == 1 {
				writeEntry(tg, 1, byteCounts[0])
			} else {
				writeEntry(tg, uint32(nStrips), uint32(stripByteCountsArrayOffset))
			}
		default:
			writeEntry(tg, tg.count, tg.value)
		}
	}
	bo.PutUint32(buf[pos:pos+4], 0) // next IFD offset
	pos += 4

	if nStrips > 1 {
		for s := 0; s < nStrips; s++ {
			bo.PutUint32(buf[stripOffsetsArrayOffset+s*4:stripOffsetsArrayOffset+s*4+4], offsets[s])
			bo.PutUint32(buf[stripByteCountsArrayOffset+s*4:stripByteCountsArrayOffset+s*4+4], byteCounts[s])
		}
	}

	for s := 0; s < nStrips; s++ {
		copy(buf[offsets[s]:], stripBytes[s])
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "test.tif")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestOpenTIFFDimensionsAndOrientation(t *testing.T) {
	path := buildMinimalTIFF(t, 8, 4, 2, 6)
	d, err := OpenTIFF(path)
	require.NoError(t, err)
	defer d.Close()

	w, h := d.Dimensions()
	require.Equal(t, 8, w)
	require.Equal(t, 4, h)
	require.Equal(t, 6, d.Orientation())
}

func TestOpenTIFFDefaultOrientation(t *testing.T) {
	path := buildMinimalTIFF(t, 4, 2, 2, 0)
	d, err := OpenTIFF(path)
	require.NoError(t, err)
	defer d.Close()
	require.Equal(t, 1, d.Orientation())
}

func TestTIFFDecodeRegionSpansMultipleStrips(t *testing.T) {
	path := buildMinimalTIFF(t, 4, 6, 2, 0)
	d, err := OpenTIFF(path)
	require.NoError(t, err)
	defer d.Close()

	img, err := d.DecodeRegion(image.Rect(0, 0, 4, 6))
	require.NoError(t, err)
	require.Equal(t, 4, img.Bounds().Dx())
	require.Equal(t, 6, img.Bounds().Dy())

	for y := 0; y < 6; y++ {
		r, g, b, _ := img.At(0, y).RGBA()
		require.Equal(t, r, g)
		require.Equal(t, g, b)
		require.Equal(t, uint32(y)*0x101, r, "row %d", y)
	}
}

func TestTIFFDecodeRegionPartial(t *testing.T) {
	path := buildMinimalTIFF(t, 8, 8, 4, 0)
	d, err := OpenTIFF(path)
	require.NoError(t, err)
	defer d.Close()

	img, err := d.DecodeRegion(image.Rect(2, 2, 6, 5))
	require.NoError(t, err)
	require.Equal(t, 4, img.Bounds().Dx())
	require.Equal(t, 3, img.Bounds().Dy())
}
