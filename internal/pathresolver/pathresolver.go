// Package pathresolver derives the output archive path for a tiled image
// from a base directory, an optional derivative identifier, and the image's
// path relative to some repository root.
package pathresolver

import (
	"path"
	"strings"
)

// Resolve computes the output .iview2 path for an image at relative path p,
// rooted at base, optionally sharded under a derivative identifier
// derivative.
//
// When derivative is empty, the image's archive lives directly under base.
// Otherwise derivative is split on '_'; all parts but the last become plain
// directory segments, and the last part is sharded two levels deep by its
// trailing characters (four-from-end through two-from-end, then the final
// two) before the derivative's own directory is appended.
func Resolve(base, derivative, p string) string {
	dir := base
	if derivative != "" {
		dir = path.Join(dir, shardedPath(derivative)...)
	}

	rel := strings.TrimPrefix(p, "/")
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	return path.Join(dir, rel+".iview2")
}

func shardedPath(derivative string) []string {
	parts := strings.Split(derivative, "_")
	segments := append([]string{}, parts[:len(parts)-1]...)

	last := parts[len(parts)-1]
	if len(last) > 3 {
		n := len(last)
		segments = append(segments, last[n-4:n-2], last[n-2:])
	} else {
		segments = append(segments, last)
	}
	segments = append(segments, derivative)
	return segments
}
