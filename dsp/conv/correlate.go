package conv

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Correlate computes the full cross-correlation of a and b. The result has
// length len(a) + len(b) - 1; output index k corresponds to lag
// k - (len(b) - 1).
func Correlate(a, b []float64) ([]float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrEmptyInput
	}

	bReversed := make([]float64, len(b))
	for i := range b {
		bReversed[i] = b[len(b)-1-i]
	}

	return Direct(a, bReversed)
}

// AutoCorrelate computes the auto-correlation of a. The result has length
// 2*len(a) - 1; output index k corresponds to lag k - (len(a) - 1).
func AutoCorrelate(a []float64) ([]float64, error) {
	return Correlate(a, a)
}

// CorrelateNormalized computes cross-correlation normalized by the product
// of the L2 norms of a and b, producing values in [-1, 1]. cmd/deconvolve-cli
// uses this to report how closely a PSF's 1-D projection along an axis lines
// up with its own mirror image.
func CorrelateNormalized(a, b []float64) ([]float64, error) {
	result, err := Correlate(a, b)
	if err != nil {
		return nil, err
	}

	normProduct := l2Norm(a) * l2Norm(b)
	if normProduct == 0 {
		return result, nil
	}

	for i := range result {
		result[i] /= normProduct
	}
	return result, nil
}

func l2Norm(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// FindPeak finds the index and value of the maximum in a correlation
// result.
func FindPeak(corr []float64) (index int, value float64) {
	if len(corr) == 0 {
		return -1, 0
	}

	index, value = 0, corr[0]
	for i, v := range corr {
		if v > value {
			index, value = i, v
		}
	}
	return index, value
}

// FindPeakSubpixel refines FindPeak's integer index to sub-sample precision
// by least-squares fitting a parabola y = a*x^2 + b*x + c to the 2*half+1
// samples centered on index, then returning the fitted vertex. The design
// matrix is solved by QR, the same approach
// AldrinSalazar-mrislicesto3d/pkg/interpolation's kriging solver uses for
// its (much larger) weight systems. cmd/deconvolve-cli uses this to report
// a PSF axis peak position sharper than the sample grid.
func FindPeakSubpixel(corr []float64, index, half int) (float64, error) {
	if index-half < 0 || index+half >= len(corr) {
		return 0, ErrWindowTooLarge
	}

	n := 2*half + 1
	design := mat.NewDense(n, 3, nil)
	target := mat.NewVecDense(n, nil)
	for row, i := 0, index-half; i <= index+half; row, i = row+1, i+1 {
		x := float64(i - index)
		design.Set(row, 0, x*x)
		design.Set(row, 1, x)
		design.Set(row, 2, 1)
		target.SetVec(row, corr[i])
	}

	var qr mat.QR
	qr.Factorize(design)
	var coeffs mat.Dense
	if err := qr.SolveTo(&coeffs, false, target); err != nil {
		return float64(index), nil
	}

	a, b := coeffs.At(0, 0), coeffs.At(1, 0)
	if a == 0 {
		return float64(index), nil
	}
	return float64(index) - b/(2*a), nil
}

// LagFromIndex converts a correlation result index to a lag value, for a
// correlation of signals whose second operand has length lenB.
func LagFromIndex(index, lenB int) int {
	return index - (lenB - 1)
}

// IndexFromLag is the inverse of [LagFromIndex].
func IndexFromLag(lag, lenB int) int {
	return lag + (lenB - 1)
}
