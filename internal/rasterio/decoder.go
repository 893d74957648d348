package rasterio

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/rasterkit/iview2tiler/internal/ioerr"
)

// Decoder is the contract the Region Reader drives: dimensions, the source's
// reported orientation, and arbitrary sub-rectangle decoding.
type Decoder interface {
	Dimensions() (width, height int)
	Orientation() int
	DecodeRegion(r image.Rectangle) (image.Image, error)
	Close() error
}

// Open sniffs path's signature and returns the decoder that claims it: the
// adapted TIFF reader for TIFF/BigTIFF sources (true sub-rectangle decode),
// or a whole-buffer stdlib JPEG/PNG decoder for everything else.
func Open(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioerr.New(ioerr.IO, path, err)
	}
	defer f.Close()

	var sig [8]byte
	n, _ := f.Read(sig[:])

	switch {
	case n >= 4 && (bytes.Equal(sig[:2], []byte("II")) || bytes.Equal(sig[:2], []byte("MM"))):
		d, err := OpenTIFF(path)
		if err != nil {
			return nil, ioerr.New(ioerr.InputNotDecodable, path, err)
		}
		return d, nil
	case n >= 2 && sig[0] == 0xFF && sig[1] == 0xD8:
		d, err := openWholeBuffer(path, "jpeg")
		if err != nil {
			return nil, ioerr.New(ioerr.InputNotDecodable, path, err)
		}
		return d, nil
	case n >= 8 && bytes.Equal(sig[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}):
		d, err := openWholeBuffer(path, "png")
		if err != nil {
			return nil, ioerr.New(ioerr.InputNotDecodable, path, err)
		}
		return d, nil
	default:
		return nil, ioerr.New(ioerr.InputNotDecodable, path, fmt.Errorf("unrecognized image signature"))
	}
}
