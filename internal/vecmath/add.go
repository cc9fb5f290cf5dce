//go:build amd64

package vecmath

import (
	"github.com/iocbio/deconvolve/internal/cpu"
	"github.com/iocbio/deconvolve/internal/vecmath/arch/amd64/avx2"
	"github.com/iocbio/deconvolve/internal/vecmath/arch/generic"
)

// AddBlockInPlace performs in-place element-wise addition: dst[i] += src[i].
// Slices must have equal length. Panics if lengths differ.
// Automatically selects the best implementation based on CPU features.
func AddBlockInPlace(dst, src []float64) {
	if cpu.HasAVX2() {
		avx2.AddBlockInPlace(dst, src)
	} else {
		generic.AddBlockInPlace(dst, src)
	}
}
