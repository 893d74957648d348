// Package ioerr defines the error kinds surfaced by a tile() invocation.
//
// The teacher wraps every boundary error with fmt.Errorf("...: %w", err); we
// keep that convention and layer a small Kind enum on top so callers can
// distinguish a swallowed metadata failure (degrade and continue) from a
// fatal one (abort the invocation), per §7 of the spec.
package ioerr

import (
	"errors"
	"fmt"
)

// Kind classifies why a tile() invocation failed.
type Kind int

const (
	// InputNotDecodable: no decoder accepts the source.
	InputNotDecodable Kind = iota
	// IO: filesystem or archive failure.
	IO
	// MetadataExtraction: EXIF orientation read failed. Non-fatal; the
	// caller degrades to orientation 1 and continues.
	MetadataExtraction
	// PixelFormatUnsupported: the decoded buffer is a pixel format the
	// adapter cannot resolve. Fatal.
	PixelFormatUnsupported
	// Internal: an impossible orientation code or other assertion failure.
	Internal
)

func (k Kind) String() string {
	switch k {
	case InputNotDecodable:
		return "InputNotDecodable"
	case IO:
		return "IO"
	case MetadataExtraction:
		return "MetadataExtraction"
	case PixelFormatUnsupported:
		return "PixelFormatUnsupported"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with a Kind and the source-image context
// that produced it, so a caller can log or branch on Kind without parsing
// message text.
type Error struct {
	Kind   Kind
	Source string // path or identifier of the source image
	Coord  string // e.g. "z2/y0/x0"; empty when not tile-scoped
	Err    error
}

func (e *Error) Error() string {
	if e.Coord != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Source, e.Coord, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with the given kind and source.
func New(kind Kind, source string, err error) *Error {
	return &Error{Kind: kind, Source: source, Err: err}
}

// At wraps err with the given kind, source, and tile coordinate context.
func At(kind Kind, source, coord string, err error) *Error {
	return &Error{Kind: kind, Source: source, Coord: coord, Err: err}
}

// KindOf reports the Kind of err, or (Internal, false) if err is not one of
// ours.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return Internal, false
}
