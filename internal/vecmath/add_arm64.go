//go:build !purego && arm64

package vecmath

import (
	"github.com/iocbio/deconvolve/internal/cpu"
	"github.com/iocbio/deconvolve/internal/vecmath/arch/arm64/neon"
	"github.com/iocbio/deconvolve/internal/vecmath/arch/generic"
)

// AddBlockInPlace performs in-place element-wise addition: dst[i] += src[i].
// Automatically selects the best implementation based on CPU features.
func AddBlockInPlace(dst, src []float64) {
	if cpu.HasNEON() {
		neon.AddBlockInPlace(dst, src)
	} else {
		generic.AddBlockInPlace(dst, src)
	}
}
