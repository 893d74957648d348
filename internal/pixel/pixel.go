// Package pixel coerces decoded image buffers into one of the two canonical
// forms the rest of the pipeline works with: 8-bit gray or 24-bit RGB.
//
// Grounded in the teacher's internal/tile/tiledata.go, which wraps a decoded
// buffer as either an *image.RGBA or a uniform colour -- the same idea of a
// small closed set of canonical representations, generalized here to the
// gray/RGB split this spec requires instead of RGBA/uniform-colour.
package pixel

import (
	"image"
	"image/color"
)

// Adapt coerces img to its canonical form, returning it unchanged when it
// already matches. Single-component sources, and indexed sources whose
// palette is "fake gray" (every entry has R == G == B), become *image.Gray.
// Everything else -- including >8-bit-per-channel sources and non-standard
// colour models -- becomes *image.NRGBA truncated to 24-bit RGB.
//
// Adapt never fails: every image.Image, by contract, can be read through
// At().RGBA(), so the default branch's toRGB fallback always has pixels to
// copy regardless of the concrete type or colour model it is handed. The
// ioerr.PixelFormatUnsupported kind is reserved for this package but
// currently unreachable; see DESIGN.md.
func Adapt(img image.Image) image.Image {
	switch src := img.(type) {
	case *image.Gray:
		return src
	case *image.Paletted:
		if isFakeGray(src.Palette) {
			return toGray(src)
		}
		return toRGB(src)
	case *image.NRGBA:
		if !src.Opaque() {
			// alpha carried through would violate the 24-bit RGB contract;
			// flatten onto an opaque canvas.
			return toRGB(src)
		}
		return src
	default:
		if isGrayModel(img.ColorModel()) {
			return toGray(img)
		}
		return toRGB(img)
	}
}

func isGrayModel(m color.Model) bool {
	return m == color.GrayModel
}

func isFakeGray(p color.Palette) bool {
	if len(p) == 0 {
		return false
	}
	for _, c := range p {
		r, g, b, _ := c.RGBA()
		if r != g || g != b {
			return false
		}
	}
	return true
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	return dst
}

func toRGB(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			dst.Set(x-b.Min.X, y-b.Min.Y, color.NRGBA{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(bl >> 8),
				A: 0xff,
			})
		}
	}
	return dst
}

// IsGray reports whether img is already in the canonical 8-bit gray form.
func IsGray(img image.Image) bool {
	_, ok := img.(*image.Gray)
	return ok
}
