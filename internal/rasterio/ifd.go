package rasterio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// entry is a raw TIFF directory entry, resolved to its actual value bytes.
type entry struct {
	tag, dataType uint16
	count         uint64
	value         []byte
}

// parseFirstIFD reads the TIFF/BigTIFF header and the first IFD only.
func parseFirstIFD(r io.ReadSeeker) (ifd, binary.ByteOrder, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return ifd{}, nil, fmt.Errorf("reading TIFF header: %w", err)
	}

	var bo binary.ByteOrder
	switch string(header[0:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return ifd{}, nil, fmt.Errorf("invalid TIFF byte order marker %q", header[0:2])
	}

	magic := bo.Uint16(header[2:4])
	bigTIFF := magic == 43
	if magic != 42 && !bigTIFF {
		return ifd{}, nil, fmt.Errorf("invalid TIFF magic %d", magic)
	}

	var firstOffset uint64
	if bigTIFF {
		var big [8]byte
		if _, err := io.ReadFull(r, big[:]); err != nil {
			return ifd{}, nil, fmt.Errorf("reading BigTIFF header: %w", err)
		}
		firstOffset = bo.Uint64(big[:])
	} else {
		firstOffset = uint64(bo.Uint32(header[4:8]))
	}

	entries, _, err := readOneIFD(r, bo, firstOffset, bigTIFF)
	if err != nil {
		return ifd{}, nil, err
	}
	return buildIFD(entries, bo), bo, nil
}

func readOneIFD(r io.ReadSeeker, bo binary.ByteOrder, offset uint64, bigTIFF bool) ([]entry, uint64, error) {
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, 0, err
	}

	var n uint64
	if bigTIFF {
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, 0, err
		}
		n = bo.Uint64(buf[:])
	} else {
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, 0, err
		}
		n = uint64(bo.Uint16(buf[:]))
	}

	entrySize := 12
	if bigTIFF {
		entrySize = 20
	}

	entries := make([]entry, n)
	for i := uint64(0); i < n; i++ {
		buf := make([]byte, entrySize)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, 0, err
		}
		entries[i] = parseEntry(buf, bo, bigTIFF)
	}

	var next uint64
	if bigTIFF {
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, 0, err
		}
		next = bo.Uint64(buf[:])
	} else {
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, 0, err
		}
		next = uint64(bo.Uint32(buf[:]))
	}

	for i := range entries {
		if err := resolveEntry(r, bo, &entries[i], bigTIFF); err != nil {
			return nil, 0, fmt.Errorf("resolving tag %d: %w", entries[i].tag, err)
		}
	}

	return entries, next, nil
}

func parseEntry(buf []byte, bo binary.ByteOrder, bigTIFF bool) entry {
	tag := bo.Uint16(buf[0:2])
	dt := bo.Uint16(buf[2:4])

	var count uint64
	var value []byte
	if bigTIFF {
		count = bo.Uint64(buf[4:12])
		value = append([]byte(nil), buf[12:20]...)
	} else {
		count = uint64(bo.Uint32(buf[4:8]))
		value = append([]byte(nil), buf[8:12]...)
	}
	return entry{tag: tag, dataType: dt, count: count, value: value}
}

func dataTypeSize(dt uint16) int {
	switch dt {
	case dtByte, dtASCII, dtSByte, dtUndef:
		return 1
	case dtShort, dtSShort:
		return 2
	case dtLong, dtSLong, dtFloat:
		return 4
	case dtRational, dtDouble, dtLong8:
		return 8
	default:
		return 1
	}
}

func resolveEntry(r io.ReadSeeker, bo binary.ByteOrder, e *entry, bigTIFF bool) error {
	total := int(e.count) * dataTypeSize(e.dataType)
	inline := 4
	if bigTIFF {
		inline = 8
	}
	if total <= inline {
		return nil
	}

	var offset uint64
	if bigTIFF {
		offset = bo.Uint64(e.value)
	} else {
		offset = uint64(bo.Uint32(e.value))
	}
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return err
	}
	data := make([]byte, total)
	if _, err := io.ReadFull(r, data); err != nil {
		return err
	}
	e.value = data
	return nil
}

func buildIFD(entries []entry, bo binary.ByteOrder) ifd {
	var d ifd
	d.SamplesPerPixel = 1
	d.PlanarConfig = 1

	var tileWidth, tileHeight uint32
	var rowsPerStrip uint32
	var stripOffsets, stripByteCounts []uint64
	var tileOffsets, tileByteCounts []uint64

	for _, e := range entries {
		switch e.tag {
		case tagImageWidth:
			d.Width = getUint32(e, bo)
		case tagImageLength:
			d.Height = getUint32(e, bo)
		case tagBitsPerSample:
			d.BitsPerSample = getUint16Slice(e, bo)
		case tagSamplesPerPixel:
			d.SamplesPerPixel = getUint16(e, bo)
		case tagCompression:
			d.Compression = getUint16(e, bo)
		case tagPhotometric:
			d.Photometric = getUint16(e, bo)
		case tagPlanarConfig:
			d.PlanarConfig = getUint16(e, bo)
		case tagPredictor:
			d.Predictor = getUint16(e, bo)
		case tagOrientation:
			d.Orientation = getUint16(e, bo)
		case tagColorMap:
			d.ColorMap = getUint16Slice(e, bo)
		case tagTileWidth:
			tileWidth = getUint32(e, bo)
		case tagTileLength:
			tileHeight = getUint32(e, bo)
		case tagRowsPerStrip:
			rowsPerStrip = getUint32(e, bo)
		case tagTileOffsets:
			tileOffsets = getUint64Slice(e, bo)
		case tagTileByteCounts:
			tileByteCounts = getUint64Slice(e, bo)
		case tagStripOffsets:
			stripOffsets = getUint64Slice(e, bo)
		case tagStripByteCounts:
			stripByteCounts = getUint64Slice(e, bo)
		case tagJPEGTables:
			d.JPEGTables = append([]byte(nil), e.value[:e.count]...)
		}
	}

	if tileWidth > 0 && tileHeight > 0 {
		d.blockWidth, d.blockHeight = tileWidth, tileHeight
		d.blockOffsets, d.blockByteCounts = tileOffsets, tileByteCounts
	} else if len(stripOffsets) > 0 {
		if rowsPerStrip == 0 {
			rowsPerStrip = d.Height
		}
		d.blockWidth, d.blockHeight = d.Width, rowsPerStrip
		d.blockOffsets, d.blockByteCounts = stripOffsets, stripByteCounts
	}

	return d
}

func getUint16(e entry, bo binary.ByteOrder) uint16 {
	switch e.dataType {
	case dtShort:
		return bo.Uint16(e.value)
	case dtLong:
		return uint16(bo.Uint32(e.value))
	default:
		return uint16(e.value[0])
	}
}

func getUint32(e entry, bo binary.ByteOrder) uint32 {
	switch e.dataType {
	case dtShort:
		return uint32(bo.Uint16(e.value))
	case dtLong:
		return bo.Uint32(e.value)
	case dtLong8:
		return uint32(bo.Uint64(e.value))
	default:
		return uint32(e.value[0])
	}
}

func getUint16Slice(e entry, bo binary.ByteOrder) []uint16 {
	n := int(e.count)
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = bo.Uint16(e.value[i*2 : i*2+2])
	}
	return out
}

func getUint64Slice(e entry, bo binary.ByteOrder) []uint64 {
	n := int(e.count)
	out := make([]uint64, n)
	switch e.dataType {
	case dtLong:
		for i := 0; i < n; i++ {
			out[i] = uint64(bo.Uint32(e.value[i*4 : i*4+4]))
		}
	case dtLong8:
		for i := 0; i < n; i++ {
			out[i] = bo.Uint64(e.value[i*8 : i*8+8])
		}
	case dtShort:
		for i := 0; i < n; i++ {
			out[i] = uint64(bo.Uint16(e.value[i*2 : i*2+2]))
		}
	}
	return out
}
