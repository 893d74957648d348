package orient

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrdinalInvariant(t *testing.T) {
	for k := 1; k <= 8; k++ {
		o, err := FromExif(k)
		require.NoError(t, err)
		require.Equal(t, k, o.Exif)
	}
}

func TestFromExifRejectsOutOfRange(t *testing.T) {
	_, err := FromExif(0)
	require.Error(t, err)
	_, err = FromExif(9)
	require.Error(t, err)
}

func TestSwappedMatchesRotation(t *testing.T) {
	for k := 1; k <= 8; k++ {
		o, _ := FromExif(k)
		want := o.RotationDeg == 90 || o.RotationDeg == 270
		require.Equal(t, want, o.Swapped(), "exif %d", k)
	}
}

func TestToPhysicalWithinExtent(t *testing.T) {
	wl, hl := 800, 600
	r := image.Rect(0, 0, wl, hl)
	for k := 1; k <= 8; k++ {
		o, _ := FromExif(k)
		physWp, physHp := wl, hl
		if o.Swapped() {
			physWp, physHp = hl, wl
		}
		rp := ToPhysical(wl, hl, r, o)
		require.GreaterOrEqual(t, rp.Min.X, 0, "exif %d", k)
		require.GreaterOrEqual(t, rp.Min.Y, 0, "exif %d", k)
		require.LessOrEqual(t, rp.Max.X, physWp, "exif %d", k)
		require.LessOrEqual(t, rp.Max.Y, physHp, "exif %d", k)
	}

	// a sub-rectangle must also land within physical bounds
	sub := image.Rect(100, 50, 300, 200)
	for k := 1; k <= 8; k++ {
		o, _ := FromExif(k)
		physWp, physHp := wl, hl
		if o.Swapped() {
			physWp, physHp = hl, wl
		}
		rp := ToPhysical(wl, hl, sub, o)
		require.GreaterOrEqual(t, rp.Min.X, 0, "exif %d", k)
		require.GreaterOrEqual(t, rp.Min.Y, 0, "exif %d", k)
		require.LessOrEqual(t, rp.Max.X, physWp, "exif %d", k)
		require.LessOrEqual(t, rp.Max.Y, physHp, "exif %d", k)
	}
}

func TestRoundTripIdentity(t *testing.T) {
	wl, hl := 800, 600
	r := image.Rect(0, 0, wl, hl)

	for k := 1; k <= 8; k++ {
		o, _ := FromExif(k)
		rp := ToPhysical(wl, hl, r, o)
		m := PhysicalToLogical(o, rp.Dx(), rp.Dy())

		corners := [][2]float64{
			{0, 0}, {float64(rp.Dx()), 0}, {0, float64(rp.Dy())}, {float64(rp.Dx()), float64(rp.Dy())},
		}
		seen := map[[2]int]bool{}
		for _, c := range corners {
			x, y := m.Apply(c[0], c[1])
			require.True(t, inRange(x, 0, float64(wl)), "exif %d x=%v", k, x)
			require.True(t, inRange(y, 0, float64(hl)), "exif %d y=%v", k, y)
			// each physical corner must land on a corner of the logical rectangle
			require.True(t, inRange(x, 0, 0) || inRange(x, float64(wl), float64(wl)), "exif %d x=%v", k, x)
			require.True(t, inRange(y, 0, 0) || inRange(y, float64(hl), float64(hl)), "exif %d y=%v", k, y)
			seen[[2]int{int(math.Round(x)), int(math.Round(y))}] = true
		}
		require.Len(t, seen, 4, "exif %d", k)
	}
}

func TestIdentityOrientationIsNoTransform(t *testing.T) {
	o, _ := FromExif(1)
	m := PhysicalToLogical(o, 100, 50)
	require.True(t, m.IsIdentity())
}

func TestNonIdentityOrientationsAreNotIdentity(t *testing.T) {
	for k := 2; k <= 8; k++ {
		o, _ := FromExif(k)
		m := PhysicalToLogical(o, 100, 50)
		require.False(t, m.IsIdentity(), "exif %d", k)
	}
}

func inRange(v, lo, hi float64) bool {
	return v >= lo-1e-9 && v <= hi+1e-9
}

func TestComposeMatchesManualRotation(t *testing.T) {
	// orientation 3 (180 rotation, no mirror) must negate both axes and
	// translate by the full extent.
	o, _ := FromExif(3)
	m := PhysicalToLogical(o, 10, 20)
	x, y := m.Apply(1, 2)
	require.InDelta(t, 9, x, 1e-9)
	require.InDelta(t, 18, y, 1e-9)
	require.False(t, math.IsNaN(x))
}

func TestExif5IsTranspose(t *testing.T) {
	// Physical w=3, h=5, point (1,2): orientation 5 is the pure transpose
	// (x,y) -> (y,x), giving (2,1).
	o, _ := FromExif(5)
	m := PhysicalToLogical(o, 3, 5)
	x, y := m.Apply(1, 2)
	require.InDelta(t, 2, x, 1e-9)
	require.InDelta(t, 1, y, 1e-9)
}

func TestExif7IsTransverse(t *testing.T) {
	// Physical w=3, h=5, point (1,2): orientation 7 is the transverse
	// (x,y) -> (h-y, w-x), giving (3,2).
	o, _ := FromExif(7)
	m := PhysicalToLogical(o, 3, 5)
	x, y := m.Apply(1, 2)
	require.InDelta(t, 3, x, 1e-9)
	require.InDelta(t, 2, y, 1e-9)
}
