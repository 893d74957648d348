// Command tiler converts a single source raster image into a .iview2 tile
// pyramid archive.
//
// Usage mirrors the teacher's cmd/geotiff2pmtiles: a flag set for the one
// tunable (-quality) plus positional arguments, log.Fatalf-style exit on
// error (here via zerolog, per the ambient-stack logging decision).
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rasterkit/iview2tiler/internal/encode"
	"github.com/rasterkit/iview2tiler/internal/pathresolver"
	"github.com/rasterkit/iview2tiler/internal/tiler"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	quality := flag.Int("quality", encode.DefaultQuality, "JPEG tile quality (1-100)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <image-path> [derivative-id]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	imagePath := args[0]
	var derivative string
	if len(args) > 1 {
		derivative = args[1]
	}

	outDir, relPath, err := resolveInputLayout(imagePath)
	if err != nil {
		log.Fatal().Err(err).Msg("tiler: resolving input layout")
	}

	archivePath := pathresolver.Resolve(outDir, derivative, relPath)

	var manifestPath string
	if derivative != "" {
		manifestPath = relPath
	}

	props, err := tiler.Tile(imagePath, archivePath, derivative, manifestPath, tiler.Options{Quality: *quality}, nil)
	if err != nil {
		log.Fatal().Err(err).Str("source", imagePath).Msg("tiler: tiling failed")
	}

	log.Info().
		Str("archive", archivePath).
		Int("width", props.Width).
		Int("height", props.Height).
		Int("zoomLevel", props.ZoomLevel).
		Int64("tiles", props.TilesCount).
		Msg("tiler: done")
}

// resolveInputLayout derives the output base directory and the relative
// image path used for manifest/path-resolver purposes, per §6: the output
// directory is the image's parent when the path is absolute, else the
// current directory; the relative path is the filename alone when the
// input was absolute, else the input path verbatim.
func resolveInputLayout(imagePath string) (outDir, relPath string, err error) {
	if filepath.IsAbs(imagePath) {
		return filepath.Dir(imagePath), filepath.Base(imagePath), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", "", fmt.Errorf("getwd: %w", err)
	}
	return wd, imagePath, nil
}
