package rasterio

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	"github.com/dsoprea/go-exif/v3"

	"github.com/rasterkit/iview2tiler/internal/encode"
)

// wholeBufferDecoder backs JPEG and PNG sources through the stdlib, since
// neither image/jpeg nor image/png supports decoding a sub-rectangle without
// materializing the full image first. The decoded image is cached and
// cropped per DecodeRegion call.
type wholeBufferDecoder struct {
	format      string
	img         image.Image
	orientation int
}

func openWholeBuffer(path, format string) (*wholeBufferDecoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rasterio: reading %s: %w", path, err)
	}

	img, err := encode.DecodeImage(data, format)
	if err != nil {
		return nil, fmt.Errorf("rasterio: decoding %s: %w", path, err)
	}

	orientation := 1
	if format == "jpeg" {
		if o, err := readJPEGOrientation(data); err == nil && o >= 1 && o <= 8 {
			orientation = o
		}
	}

	return &wholeBufferDecoder{format: format, img: img, orientation: orientation}, nil
}

func (w *wholeBufferDecoder) Dimensions() (int, int) {
	b := w.img.Bounds()
	return b.Dx(), b.Dy()
}

func (w *wholeBufferDecoder) Orientation() int { return w.orientation }

// DecodeRegion returns a fresh, zero-origin copy of r's pixels, matching
// the TIFF decoder's contract (Bounds().Min == (0,0), Dx/Dy == r.Dx()/r.Dy())
// even though the underlying decode already materialized the whole image.
func (w *wholeBufferDecoder) DecodeRegion(r image.Rectangle) (image.Image, error) {
	b := w.img.Bounds()
	shifted := r.Add(b.Min)
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), w.img, shifted.Min, draw.Src)
	return dst, nil
}

func (w *wholeBufferDecoder) Close() error { return nil }

// readJPEGOrientation extracts the EXIF orientation tag from JPEG bytes,
// the same exif.SearchAndExtractExif + GetFlatExifData scan the
// pack's EXIF-aware processors use, rather than a hand-rolled APP1 parser.
func readJPEGOrientation(data []byte) (int, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return 0, err
	}
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.TagName != "Orientation" {
			continue
		}
		switch v := e.Value.(type) {
		case []uint16:
			if len(v) > 0 {
				return int(v[0]), nil
			}
		case uint16:
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("rasterio: no orientation tag present")
}
