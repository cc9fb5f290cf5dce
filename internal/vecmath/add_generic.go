//go:build purego || !(amd64 || arm64)

package vecmath

import "github.com/iocbio/deconvolve/internal/vecmath/arch/generic"

// AddBlockInPlace performs in-place element-wise addition: dst[i] += src[i].
// Slices must have equal length. Panics if lengths differ.
// This is the pure Go fallback implementation.
func AddBlockInPlace(dst, src []float64) {
	generic.AddBlockInPlace(dst, src)
}
