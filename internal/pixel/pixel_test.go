package pixel

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdaptGrayIsNoOp(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 4))
	g.SetGray(0, 0, color.Gray{Y: 128})
	out := Adapt(g)
	require.Same(t, g, out)
}

func TestAdaptFakeGrayPaletteBecomesGray(t *testing.T) {
	pal := color.Palette{
		color.RGBA{10, 10, 10, 255},
		color.RGBA{200, 200, 200, 255},
	}
	src := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
	src.SetColorIndex(0, 0, 1)
	src.SetColorIndex(1, 0, 0)
	src.SetColorIndex(0, 1, 0)
	src.SetColorIndex(1, 1, 1)

	out := Adapt(src)
	gray, ok := out.(*image.Gray)
	require.True(t, ok)
	require.Equal(t, uint8(200), gray.GrayAt(0, 0).Y)
	require.Equal(t, uint8(10), gray.GrayAt(1, 0).Y)
}

func TestAdaptColourPaletteBecomesRGB(t *testing.T) {
	pal := color.Palette{
		color.RGBA{255, 0, 0, 255},
		color.RGBA{0, 255, 0, 255},
	}
	src := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
	src.SetColorIndex(0, 0, 0)

	out := Adapt(src)
	rgb, ok := out.(*image.NRGBA)
	require.True(t, ok)
	r, g, b, _ := rgb.At(0, 0).RGBA()
	require.Equal(t, uint32(0xffff), r)
	require.Equal(t, uint32(0), g)
	require.Equal(t, uint32(0), b)
}

func TestAdaptOpaqueNRGBAIsNoOp(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		if (i+1)%4 == 0 {
			src.Pix[i] = 255
		}
	}
	out := Adapt(src)
	require.Same(t, src, out)
}

func TestAdaptTranslucentNRGBAFlattensToOpaque(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 128})
	out := Adapt(src)
	rgb, ok := out.(*image.NRGBA)
	require.True(t, ok)
	_, _, _, a := rgb.At(0, 0).RGBA()
	require.Equal(t, uint32(0xffff), a)
}

func TestIsGray(t *testing.T) {
	require.True(t, IsGray(image.NewGray(image.Rect(0, 0, 1, 1))))
	require.False(t, IsGray(image.NewNRGBA(image.Rect(0, 0, 1, 1))))
}
