package encode

import (
	"bytes"
	"image"
	"image/jpeg"
)

// DefaultQuality is the archive packager's tile quality, 0.75 on a 0-1
// scale expressed as the stdlib's 1-100 integer.
const DefaultQuality = 75

// JPEGEncoder encodes tiles as JPEG at a fixed quality. The same instance is
// reused across every tile in a pyramid; its internal buffer is reset
// rather than reallocated between calls.
//
// image/jpeg has no progressive mode -- the spec's "progressive if
// supported" is a no-op here; there is no third-party progressive JPEG
// encoder in the example pack to reach for instead.
type JPEGEncoder struct {
	Quality int // 1-100, default DefaultQuality
	buf     bytes.Buffer
}

func (e *JPEGEncoder) Encode(img image.Image) ([]byte, error) {
	e.buf.Reset()
	quality := e.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}
	if err := jpeg.Encode(&e.buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	out := make([]byte, e.buf.Len())
	copy(out, e.buf.Bytes())
	return out, nil
}

func (e *JPEGEncoder) Format() string       { return "jpeg" }
func (e *JPEGEncoder) FileExtension() string { return ".jpg" }
