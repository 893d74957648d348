package manifest

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalRoundTrip(t *testing.T) {
	info := ImageInfo{
		Derivate:  "junit_derivate_00000001",
		Path:      "foo/bar.tif",
		Tiles:     13,
		ZoomLevel: 2,
		Height:    600,
		Width:     800,
	}
	data, err := Marshal(info)
	require.NoError(t, err)

	var got ImageInfo
	require.NoError(t, xml.Unmarshal(data, &got))
	require.Equal(t, info, got)
}

func TestMarshalEmptyPath(t *testing.T) {
	info := ImageInfo{Tiles: 1, ZoomLevel: 0, Height: 10, Width: 10}
	data, err := Marshal(info)
	require.NoError(t, err)
	require.Contains(t, string(data), `path=""`)
}

func TestMarshalIsImageInfoElement(t *testing.T) {
	data, err := Marshal(ImageInfo{})
	require.NoError(t, err)
	require.Contains(t, string(data), "<imageinfo")
}
