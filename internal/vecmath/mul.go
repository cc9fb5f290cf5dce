package vecmath

import (
	"sync"

	"github.com/iocbio/deconvolve/internal/cpu"
	"github.com/iocbio/deconvolve/internal/vecmath/registry"
)

var (
	mulBlockInPlaceImpl func([]float64, []float64)
	mulInitOnce         sync.Once
)

func initMulOperations() {
	features := cpu.DetectFeatures()
	entry := registry.Global.Lookup(features)
	if entry == nil {
		panic("vecmath: no mul implementation registered")
	}
	if entry.MulBlockInPlace == nil {
		panic("vecmath: selected implementation missing mul operations")
	}
	mulBlockInPlaceImpl = entry.MulBlockInPlace
}

// MulBlockInPlace performs in-place element-wise multiplication: dst[i] *= src[i].
func MulBlockInPlace(dst, src []float64) {
	mulInitOnce.Do(initMulOperations)
	mulBlockInPlaceImpl(dst, src)
}
