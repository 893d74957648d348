package pathresolver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveWithDerivative(t *testing.T) {
	got := Resolve("/out", "junit_derivate_00000001", "foo/bar.tif")
	require.Equal(t, "/out/junit/derivate/00/01/junit_derivate_00000001/foo/bar.iview2", got)
}

func TestResolveWithDerivativeLeadingSlash(t *testing.T) {
	got := Resolve("/out", "junit_derivate_00000001", "/foo/bar.tif")
	require.Equal(t, "/out/junit/derivate/00/01/junit_derivate_00000001/foo/bar.iview2", got)
}

func TestResolveWithoutDerivative(t *testing.T) {
	got := Resolve("/out", "", "x.tif")
	require.Equal(t, "/out/x.iview2", got)
}

func TestResolveShortLastPart(t *testing.T) {
	got := Resolve("/out", "a_bc", "x.tif")
	require.Equal(t, "/out/a/bc/a_bc/x.iview2", got)
}

func TestResolveNoUnderscore(t *testing.T) {
	got := Resolve("/out", "abcdef", "x.tif")
	require.Equal(t, "/out/cd/ef/abcdef/x.iview2", got)
}
