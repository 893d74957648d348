// Package archive packages tiles and the pyramid manifest into the output
// .iview2 ZIP container, in the deterministic order the format requires.
//
// Grounded in the teacher's internal/pmtiles.Writer: an output sink opened
// once, entries appended as the builder produces them, and a Finalize/Close
// step that is the only place the file is made durable. The underlying
// container format differs (ZIP, not the PMTiles binary layout) but the
// write-as-you-go, close-once shape is the same.
package archive

import (
	"archive/zip"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/rasterkit/iview2tiler/internal/encode"
)

// Packager appends tile and manifest entries to a ZIP archive at a fixed
// path, in the order its methods are called; it does not sort or check
// them. The Pyramid Builder calls it in canonical order: descending z,
// ascending y, ascending x, then the manifest last. It owns the single JPEG
// encoder instance shared across every tile.
type Packager struct {
	file    *os.File
	zw      *zip.Writer
	encoder encode.Encoder
}

// Create opens (creating parent directories as needed) a new archive at
// path for writing. An existing file at path is truncated.
func Create(path string, quality int) (*Packager, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("archive: mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("archive: create: %w", err)
	}
	return &Packager{
		file:    f,
		zw:      zip.NewWriter(f),
		encoder: encode.NewEncoder(quality),
	}, nil
}

// WriteTile encodes img and appends it at "z/y/x.jpg". Entry names always
// use forward slashes, regardless of host OS.
func (p *Packager) WriteTile(z, y, x int, img image.Image) ([]byte, error) {
	data, err := p.encoder.Encode(img)
	if err != nil {
		return nil, fmt.Errorf("archive: encode tile %d/%d/%d: %w", z, y, x, err)
	}
	name := fmt.Sprintf("%d/%d/%d%s", z, y, x, p.encoder.FileExtension())
	if err := p.writeEntry(name, data); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteManifest appends data as imageinfo.xml, the archive's final entry.
func (p *Packager) WriteManifest(data []byte) error {
	return p.writeEntry("imageinfo.xml", data)
}

func (p *Packager) writeEntry(name string, data []byte) error {
	w, err := p.zw.Create(name)
	if err != nil {
		return fmt.Errorf("archive: create entry %q: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("archive: write entry %q: %w", name, err)
	}
	return nil
}

// Close finalizes the ZIP central directory and closes the underlying file.
func (p *Packager) Close() error {
	if err := p.zw.Close(); err != nil {
		p.file.Close()
		return fmt.Errorf("archive: close zip writer: %w", err)
	}
	return p.file.Close()
}

var _ io.Closer = (*Packager)(nil)
