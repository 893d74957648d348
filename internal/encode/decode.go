package encode

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
)

// DecodeImage decodes a whole-buffer JPEG or PNG source image. This is the
// stdlib path used for sources the adapted TIFF reader does not claim; it
// has no partial-region capability, unlike rasterio's TIFF decoder.
func DecodeImage(data []byte, format string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch format {
	case "png":
		return png.Decode(r)
	case "jpeg", "jpg":
		return jpeg.Decode(r)
	default:
		return nil, fmt.Errorf("unsupported decode format: %q", format)
	}
}
