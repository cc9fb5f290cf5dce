package conv

import (
	"errors"

	"github.com/iocbio/deconvolve/internal/vecmath"
)

// Errors returned by convolution functions.
var (
	ErrEmptyInput     = errors.New("conv: empty input")
	ErrEmptyKernel    = errors.New("conv: empty kernel")
	ErrLengthMismatch = errors.New("conv: buffer length mismatch")
	ErrWindowTooLarge = errors.New("conv: peak window exceeds correlation bounds")
)

// Direct performs direct time-domain linear convolution of a and b.
// Returns a new slice of length len(a) + len(b) - 1.
func Direct(a, b []float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	result := make([]float64, len(a)+len(b)-1)
	DirectTo(result, a, b)
	return result, nil
}

// DirectTo performs direct convolution, writing to a pre-allocated
// destination. dst must have length len(a) + len(b) - 1.
func DirectTo(dst, a, b []float64) {
	n := len(a)
	m := len(b)

	for i := range dst {
		dst[i] = 0
	}

	const simdThreshold = 4
	if m >= simdThreshold {
		directToSIMD(dst, a, b, n, m)
	} else {
		directToScalar(dst, a, b, n, m)
	}
}

func directToScalar(dst, a, b []float64, n, m int) {
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			dst[i+j] += a[i] * b[j]
		}
	}
}

// directToSIMD vectorizes the inner loop via vecmath's dispatched kernels.
func directToSIMD(dst, a, b []float64, n, m int) {
	temp := make([]float64, m)

	for i := 0; i < n; i++ {
		vecmath.ScaleBlock(temp, b, a[i])
		vecmath.AddBlockInPlace(dst[i:i+m], temp)
	}
}

// DirectCircular performs circular (toroidal) convolution of a and b. Both
// inputs must have the same length N, and the result has length N. This is
// the same periodic-boundary convolution voxel.Buffer.Convolve performs via
// FFT over a 3-D volume, restricted to one dimension with no frequency-domain
// shortcuts, used as a reference in that package's tests.
func DirectCircular(a, b []float64) ([]float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrEmptyInput
	}
	if len(a) != len(b) {
		return nil, ErrLengthMismatch
	}

	result := make([]float64, len(a))
	DirectCircularTo(result, a, b)
	return result, nil
}

// DirectCircularTo performs circular convolution to a pre-allocated
// destination of length len(a).
func DirectCircularTo(dst, a, b []float64) {
	n := len(a)

	for i := range dst {
		dst[i] = 0
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dst[(i+j)%n] += a[i] * b[j]
		}
	}
}
