//go:build !purego && arm64

package vecmath

import (
	"github.com/iocbio/deconvolve/internal/cpu"
	"github.com/iocbio/deconvolve/internal/vecmath/arch/arm64/neon"
	"github.com/iocbio/deconvolve/internal/vecmath/arch/generic"
)

// ScaleBlock multiplies each element by a scalar: dst[i] = src[i] * scale.
// Slices must have equal length. Panics if lengths differ.
// Automatically selects the best implementation based on CPU features.
func ScaleBlock(dst, src []float64, scale float64) {
	if cpu.HasNEON() {
		neon.ScaleBlock(dst, src, scale)
	} else {
		generic.ScaleBlock(dst, src, scale)
	}
}
