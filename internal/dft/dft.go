// Package dft implements the 1-D complex transforms used to build the
// row-column real-to-complex / complex-to-real 3-D transform consumed by
// package fftplan.
//
// algo-fft's FastPlan only accepts power-of-2 lengths, but the voxel grids
// this library operates on have no such restriction. Axis lengths that are
// a power of two are delegated to algo-fft; every other length falls back
// to a direct DFT with cached twiddle factors. Both paths share the same
// unnormalized forward/inverse convention: a Forward followed by an Inverse
// reproduces the input scaled by n, exactly as algo-fft's own base
// Forward/Inverse pair behaves (only ForwardNormalized/ForwardUnitary
// divide by n or sqrt(n)).
package dft

import (
	"math"
	"sync"

	algofft "github.com/cwbudde/algo-fft"
)

// Transform1D computes forward and inverse complex DFTs of a fixed length n.
type Transform1D struct {
	n      int
	fast   *algofft.FastPlan[complex128]
	twFwd  []complex128 // twiddle[k] = exp(-2pi*i*k/n), direct path only
	twInv  []complex128 // conjugate of twFwd, direct path only
	direct bool
}

var (
	cache   = map[int]*Transform1D{}
	cacheMu sync.Mutex
)

// Get returns the cached Transform1D for length n, creating it on first use.
func Get(n int) *Transform1D {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if t, ok := cache[n]; ok {
		return t
	}
	t := newTransform1D(n)
	cache[n] = t
	return t
}

func newTransform1D(n int) *Transform1D {
	if n < 1 {
		panic("dft: length must be positive")
	}
	if plan, err := algofft.NewFastPlan[complex128](n); err == nil {
		return &Transform1D{n: n, fast: plan}
	}

	twFwd := make([]complex128, n)
	twInv := make([]complex128, n)
	for k := 0; k < n; k++ {
		theta := -2 * math.Pi * float64(k) / float64(n)
		twFwd[k] = complex(math.Cos(theta), math.Sin(theta))
		twInv[k] = complex(real(twFwd[k]), -imag(twFwd[k]))
	}
	return &Transform1D{n: n, twFwd: twFwd, twInv: twInv, direct: true}
}

// Len returns the transform length.
func (t *Transform1D) Len() int { return t.n }

// Forward computes the unnormalized forward DFT: dst[k] = sum_n src[n]*exp(-2pi*i*k*n/n).
func (t *Transform1D) Forward(dst, src []complex128) {
	if !t.direct {
		t.fast.Forward(dst, src)
		return
	}
	directTransform(dst, src, t.twFwd)
}

// Inverse computes the unnormalized inverse DFT (no division by n).
func (t *Transform1D) Inverse(dst, src []complex128) {
	if !t.direct {
		t.fast.Inverse(dst, src)
		return
	}
	directTransform(dst, src, t.twInv)
}

// directTransform evaluates dst[k] = sum_n src[n] * tw[(k*n) mod n] in O(n^2),
// correct for arbitrary n and acceptable for the moderate axis lengths this
// library targets (a handful of PSF/OTF resamples and engine iterations,
// not a hot per-sample loop).
func directTransform(dst, src []complex128, tw []complex128) {
	n := len(tw)
	for k := 0; k < n; k++ {
		var acc complex128
		idx := 0
		for j := 0; j < n; j++ {
			acc += src[j] * tw[idx]
			idx += k
			if idx >= n {
				idx -= n
			}
		}
		dst[k] = acc
	}
}
