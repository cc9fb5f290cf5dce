package dft

// Forward3D and Inverse3D implement the in-place real-to-complex /
// complex-to-real 3-D transform pair over the padded buffer layout used by
// package voxel: n1*n2*2*(n3/2+1) float64 values, the last axis holding a
// real row of n3 samples (forward input) or a half-spectrum of n3/2+1
// complex bins (forward output), exactly as FFTW's fftw_plan_dft_r2c_3d /
// c2r_3d operate in place. The transform is separable: the real axis (3) is
// handled first (or last, for the inverse), the remaining two axes are
// plain complex DFTs, matching the row-column decomposition
// original_source/deconvolve/cpp/src/psf.cpp and image.cpp rely on FFTW to
// perform internally.

// HalfLen returns n3/2+1, the number of complex bins along the padded axis.
func HalfLen(n3 int) int { return n3/2 + 1 }

// PaddedLen returns the padded float64 length of one row along axis 3.
func PaddedLen(n3 int) int { return 2 * HalfLen(n3) }

func cget(buf []float64, cidx int) complex128 {
	return complex(buf[2*cidx], buf[2*cidx+1])
}

func cset(buf []float64, cidx int, v complex128) {
	buf[2*cidx] = real(v)
	buf[2*cidx+1] = imag(v)
}

// Forward3D transforms buf (real input, padded layout) into its half-spectrum
// in place.
func Forward3D(buf []float64, n1, n2, n3 int) {
	h3 := HalfLen(n3)
	pad := PaddedLen(n3)

	t3 := Get(n3)
	row := make([]complex128, n3)
	spec := make([]complex128, n3)
	for i := 0; i < n1; i++ {
		for j := 0; j < n2; j++ {
			base := (i*n2 + j) * pad
			for k := 0; k < n3; k++ {
				row[k] = complex(buf[base+k], 0)
			}
			t3.Forward(spec, row)
			cbase := (i*n2 + j) * h3
			for k := 0; k < h3; k++ {
				cset(buf, cbase+k, spec[k])
			}
		}
	}

	transformAxis2(buf, n1, n2, h3, false)
	transformAxis1(buf, n1, n2, h3, false)
}

// Inverse3D transforms buf (half-spectrum, padded layout) back to the real
// spatial domain in place, without dividing by n1*n2*n3 (spec.md requires
// the caller to fold normalization into convolve).
func Inverse3D(buf []float64, n1, n2, n3 int) {
	h3 := HalfLen(n3)
	pad := PaddedLen(n3)

	transformAxis1(buf, n1, n2, h3, true)
	transformAxis2(buf, n1, n2, h3, true)

	t3 := Get(n3)
	full := make([]complex128, n3)
	out := make([]complex128, n3)
	for i := 0; i < n1; i++ {
		for j := 0; j < n2; j++ {
			cbase := (i*n2 + j) * h3
			for k := 0; k < h3; k++ {
				full[k] = cget(buf, cbase+k)
			}
			for k := h3; k < n3; k++ {
				mirror := n3 - k
				full[k] = complex(real(full[mirror]), -imag(full[mirror]))
			}
			t3.Inverse(out, full)

			base := (i*n2 + j) * pad
			for k := 0; k < n3; k++ {
				buf[base+k] = real(out[k])
			}
		}
	}
}

// transformAxis2 runs a length-n2 complex DFT along axis 2 for every (i, k)
// pair, where k indexes the h3 half-spectrum depth planes.
func transformAxis2(buf []float64, n1, n2, h3 int, inverse bool) {
	t2 := Get(n2)
	col := make([]complex128, n2)
	out := make([]complex128, n2)
	for i := 0; i < n1; i++ {
		for k := 0; k < h3; k++ {
			for j := 0; j < n2; j++ {
				col[j] = cget(buf, (i*n2+j)*h3+k)
			}
			if inverse {
				t2.Inverse(out, col)
			} else {
				t2.Forward(out, col)
			}
			for j := 0; j < n2; j++ {
				cset(buf, (i*n2+j)*h3+k, out[j])
			}
		}
	}
}

// transformAxis1 runs a length-n1 complex DFT along axis 1 for every (j, k)
// pair.
func transformAxis1(buf []float64, n1, n2, h3 int, inverse bool) {
	t1 := Get(n1)
	col := make([]complex128, n1)
	out := make([]complex128, n1)
	for j := 0; j < n2; j++ {
		for k := 0; k < h3; k++ {
			for i := 0; i < n1; i++ {
				col[i] = cget(buf, (i*n2+j)*h3+k)
			}
			if inverse {
				t1.Inverse(out, col)
			} else {
				t1.Forward(out, col)
			}
			for i := 0; i < n1; i++ {
				cset(buf, (i*n2+j)*h3+k, out[i])
			}
		}
	}
}
