// Package encode serializes canonical pixel buffers into tile byte payloads.
package encode

import "image"

// Encoder encodes an image into tile bytes.
type Encoder interface {
	// Encode encodes an image to bytes in the tile format.
	Encode(img image.Image) ([]byte, error)

	// Format returns the format name (e.g. "jpeg").
	Format() string

	// FileExtension returns the appropriate file extension, including the
	// leading dot.
	FileExtension() string
}

// NewEncoder creates the tile encoder used by the archive packager. Only
// JPEG is exposed: every on-disk tile entry is z/y/x.jpg per the archive
// contract.
func NewEncoder(quality int) Encoder {
	return &JPEGEncoder{Quality: quality}
}
