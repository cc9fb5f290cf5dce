// Package voxel implements the padded in-place real/half-spectrum 3-D
// image buffer the deconvolution engine operates on, grounded on
// original_source/deconvolve/cpp/src/image.hpp/.cpp. Pointwise and
// reduction primitives reuse internal/vecmath kernels where a vecmath
// primitive matches exactly; the RL ratio step, the regularized combine and
// the divergence stencil are new loops parallelized over the outermost axis
// the same way AldrinSalazar-mrislicesto3d's
// Reconstructor.GetVolumeData splits work across runtime.NumCPU() workers.
package voxel

import (
	"errors"
	"math"

	"github.com/iocbio/deconvolve/fftplan"
	"github.com/iocbio/deconvolve/internal/dft"
	"github.com/iocbio/deconvolve/internal/vecmath"
	"github.com/iocbio/deconvolve/settings"
)

// Errors returned by Buffer operations.
var (
	ErrEmptyBuffer       = errors.New("voxel: operation on empty buffer")
	ErrIncompatible      = errors.New("voxel: incompatible buffers")
	ErrUnplannedFFT      = errors.New("voxel: fft executed without a plan")
	ErrShapeMismatch     = errors.New("voxel: data length does not match shape")
	ErrInvalidSNRWindow  = errors.New("voxel: snr window too large for shape")
	ErrAllocation        = errors.New("voxel: allocation failed")
)

// Shape is a 3-D image shape, n3 the fastest-varying axis.
type Shape struct {
	N1, N2, N3 int
}

// Positive reports whether all three axes are positive.
func (s Shape) Positive() bool { return s.N1 > 0 && s.N2 > 0 && s.N3 > 0 }

// Size returns n1*n2*n3, the logical element count.
func (s Shape) Size() int { return s.N1 * s.N2 * s.N3 }

// Pitch is a 3-D voxel pitch in a fixed linear unit (nanometers internally).
type Pitch struct {
	V1, V2, V3 float64
}

const pitchTolerance = 1e-13

// sameVoxel reports whether two pitches agree to within pitchTolerance per
// component, matching image.hpp's same_voxel.
func (p Pitch) sameVoxel(q Pitch) bool {
	return math.Abs(p.V1-q.V1) < pitchTolerance &&
		math.Abs(p.V2-q.V2) < pitchTolerance &&
		math.Abs(p.V3-q.V3) < pitchTolerance
}

// Buffer is a padded row-major 3-D array holding either a real image or its
// half-spectrum, in place, plus the FFT plan pair bound to its storage.
type Buffer struct {
	data     []float64
	shape    Shape
	pitch    Pitch
	settings *settings.Snapshot

	fwdPlan fftplan.Plan
	invPlan fftplan.Plan
}

// pad returns the padded length of one row along axis 3: 2*(n3/2+1).
func (s Shape) pad() int { return dft.PaddedLen(s.N3) }

// New constructs a Buffer bound to snap, with the given shape and pitch.
// If data is non-nil its length must equal shape.Size(); it is copied row
// by row into the padded layout, leaving the pad scalars untouched. A nil
// data argument leaves the buffer allocated but uninitialized.
func New(snap *settings.Snapshot, data []float64, shape Shape, pitch Pitch) (*Buffer, error) {
	if !shape.Positive() {
		return nil, ErrShapeMismatch
	}
	if data != nil && len(data) != shape.Size() {
		return nil, ErrShapeMismatch
	}

	pad := shape.pad()
	storage := make([]float64, shape.N1*shape.N2*pad)
	if storage == nil {
		return nil, ErrAllocation
	}

	b := &Buffer{data: storage, shape: shape, pitch: pitch, settings: snap}
	if data != nil {
		rows := shape.N1 * shape.N2
		for i := 0; i < rows; i++ {
			copy(b.data[i*pad:i*pad+shape.N3], data[i*shape.N3:(i+1)*shape.N3])
		}
	}
	return b, nil
}

// Empty reports whether the buffer holds no data (shape with a non-positive
// axis, or an uninitialized zero value).
func (b *Buffer) Empty() bool {
	return b == nil || !b.shape.Positive()
}

// Shape returns the buffer's logical shape.
func (b *Buffer) Shape() Shape { return b.shape }

// Pitch returns the buffer's voxel pitch.
func (b *Buffer) Pitch() Pitch { return b.pitch }

// Compatible reports whether b and other are both non-empty and share shape
// and voxel pitch, per image.hpp's compatible().
func (b *Buffer) Compatible(other *Buffer) bool {
	if b.Empty() || other.Empty() {
		return false
	}
	return b.shape == other.shape && b.pitch.sameVoxel(other.pitch)
}

func (b *Buffer) checkCompatible(other *Buffer) error {
	if !b.Compatible(other) {
		return ErrIncompatible
	}
	return nil
}

// FFT executes the buffer's forward transform, lazily creating the plan on
// first call.
func (b *Buffer) FFT() error {
	if b.Empty() {
		return ErrEmptyBuffer
	}
	if b.fwdPlan == nil {
		plan, err := b.settings.Forward(b.data, b.shape.N1, b.shape.N2, b.shape.N3)
		if err != nil {
			return err
		}
		if plan == nil {
			return ErrUnplannedFFT
		}
		b.fwdPlan = plan
	}
	b.fwdPlan.Execute()
	return nil
}

// IFFT executes the buffer's inverse transform, lazily creating the plan on
// first call. The result is not renormalized by N; normalization is folded
// into Convolve/ConvolveConj.
func (b *Buffer) IFFT() error {
	if b.Empty() {
		return ErrEmptyBuffer
	}
	if b.invPlan == nil {
		plan, err := b.settings.Inverse(b.data, b.shape.N1, b.shape.N2, b.shape.N3)
		if err != nil {
			return err
		}
		if plan == nil {
			return ErrUnplannedFFT
		}
		b.invPlan = plan
	}
	b.invPlan.Execute()
	return nil
}

func cget(data []float64, cidx int) complex128 {
	return complex(data[2*cidx], data[2*cidx+1])
}

func cset(data []float64, cidx int, v complex128) {
	data[2*cidx] = real(v)
	data[2*cidx+1] = imag(v)
}

// convolveImplementation is the shared body of Convolve/ConvolveConj,
// mirroring image.cpp's convolve_implementation + prod/prod_conj helpers.
func (b *Buffer) convolveImplementation(kernel *Buffer, conj bool) error {
	if err := b.checkCompatible(kernel); err != nil {
		return err
	}
	if err := b.FFT(); err != nil {
		return err
	}

	scale := complex(float64(b.shape.Size()), 0)
	h3 := dft.HalfLen(b.shape.N3)
	total := b.shape.N1 * b.shape.N2 * h3

	parallelRange(total, func(lo, hi int) {
		for idx := lo; idx < hi; idx++ {
			im := cget(b.data, idx)
			ker := cget(kernel.data, idx)
			if conj {
				ker = complex(real(ker), -imag(ker))
			}
			cset(b.data, idx, im*ker/scale)
		}
	})

	return b.IFFT()
}

// Convolve executes this <- IFFT(FFT(this) * kernel / N), where kernel is a
// spectral (already-transformed) compatible buffer.
func (b *Buffer) Convolve(kernel *Buffer) error {
	return b.convolveImplementation(kernel, false)
}

// ConvolveConj executes this <- IFFT(FFT(this) * conj(kernel) / N).
func (b *Buffer) ConvolveConj(kernel *Buffer) error {
	return b.convolveImplementation(kernel, true)
}

// rows returns the number of real-valued rows (n1*n2), their length n3, and
// the padded row stride that skips the pad scalars.
func (b *Buffer) rows() (rows, n3, pad int) {
	return b.shape.N1 * b.shape.N2, b.shape.N3, b.shape.pad()
}

// InvDivideImage performs the guarded Richardson-Lucy ratio step:
// this[i] <- (this[i] <= 0) ? 0 : other[i] / this[i].
func (b *Buffer) InvDivideImage(other *Buffer) error {
	if err := b.checkCompatible(other); err != nil {
		return err
	}
	rows, n3, pad := b.rows()
	parallelRange(rows, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			base := i * pad
			d := b.data[base : base+n3]
			im := other.data[base : base+n3]
			for j := range d {
				v := d[j]
				if v <= 0 {
					d[j] = 0
				} else {
					d[j] = im[j] / v
				}
			}
		}
	})
	return nil
}

// ProdImage performs pointwise this[i] <- this[i] * other[i], using
// vecmath's SIMD-dispatched multiply kernel over each row.
func (b *Buffer) ProdImage(other *Buffer) error {
	if err := b.checkCompatible(other); err != nil {
		return err
	}
	rows, n3, pad := b.rows()
	parallelRange(rows, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			base := i * pad
			vecmath.MulBlockInPlace(b.data[base:base+n3], other.data[base:base+n3])
		}
	})
	return nil
}

// ProdRegularized performs pointwise
// this[i] <- this[i] * other[i] / (1 - lambda*div[i]).
func (b *Buffer) ProdRegularized(other *Buffer, lambda float64, div *Buffer) error {
	if err := b.checkCompatible(other); err != nil {
		return err
	}
	if err := b.checkCompatible(div); err != nil {
		return err
	}
	rows, n3, pad := b.rows()
	parallelRange(rows, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			base := i * pad
			result := b.data[base : base+n3]
			im := other.data[base : base+n3]
			di := div.data[base : base+n3]
			for j := range result {
				result[j] = result[j] * im[j] / (1.0 - lambda*di[j])
			}
		}
	})
	return nil
}

// at reads f(i,j,k) from the real payload; it does no clamping, so callers
// pass indices already clamped with clampLow/clampHigh.
func (b *Buffer) at(i, j, k int) float64 {
	pad := b.shape.pad()
	return b.data[i*b.shape.N2*pad+j*pad+k]
}

func clampLow(i int) int {
	if i == 0 {
		return 0
	}
	return i - 1
}

func clampHigh(i, n int) int {
	if i+1 == n {
		return i
	}
	return i + 1
}

// minmod returns the argument of smaller magnitude when a and b share sign,
// otherwise 0.
func minmod(a, b float64) float64 {
	if a < 0 && b < 0 {
		if a >= b {
			return a
		}
		return b
	}
	if a > 0 && b > 0 {
		if a < b {
			return a
		}
		return b
	}
	return 0.0
}

func hypot3(a, b, c float64) float64 {
	return math.Sqrt(a*a + b*b + c*c)
}

// DivUnitGrad computes this <- div(grad(f)/|grad(f)|), the TV regularizer's
// divergence-of-normalized-gradient stencil, exactly as image.cpp's
// div_unit_grad.
func (b *Buffer) DivUnitGrad(f *Buffer) error {
	if err := b.checkCompatible(f); err != nil {
		return err
	}

	h0, h1, h2 := f.pitch.V1, f.pitch.V2, f.pitch.V3
	n1, n2, n3 := f.shape.N1, f.shape.N2, f.shape.N3
	pad := b.shape.pad()

	parallelRange(n1, func(loI, hiI int) {
		for i := loI; i < hiI; i++ {
			im1 := clampLow(i)
			ip1 := clampHigh(i, n1)

			for j := 0; j < n2; j++ {
				jm1 := clampLow(j)
				jp1 := clampHigh(j, n2)

				for k := 0; k < n3; k++ {
					km1 := clampLow(k)
					kp1 := clampHigh(k, n3)

					fimjm := f.at(im1, jm1, k)
					fim := f.at(im1, j, k)
					fimkm := f.at(im1, j, km1)
					fimkp := f.at(im1, j, kp1)
					fimjp := f.at(im1, jp1, k)

					fjmkm := f.at(i, jm1, km1)
					fjm := f.at(i, jm1, k)
					fjmkp := f.at(i, jm1, kp1)

					fkm := f.at(i, j, km1)
					fijk := f.at(i, j, k)
					fkp := f.at(i, j, kp1)

					fjpkm := f.at(i, jp1, km1)
					fjp := f.at(i, jp1, k)

					fipjm := f.at(ip1, jm1, k)
					fipkm := f.at(ip1, j, km1)
					fip := f.at(ip1, j, k)

					dxpf := (fip - fijk) / h0
					dxmf := (fijk - fim) / h0
					dypf := (fjp - fijk) / h1
					dymf := (fijk - fjm) / h1
					dzpf := (fkp - fijk) / h2
					dzmf := (fijk - fkm) / h2

					aijk := hypot3(dxpf, minmod(dypf, dymf), minmod(dzpf, dzmf))
					bijk := hypot3(dypf, minmod(dxpf, dxmf), minmod(dzpf, dzmf))
					cijk := hypot3(dzpf, minmod(dypf, dymf), minmod(dxpf, dxmf))

					if aijk > 0 {
						aijk = dxpf / aijk
					} else {
						aijk = 0
					}
					if bijk > 0 {
						bijk = dypf / bijk
					} else {
						bijk = 0
					}
					if cijk > 0 {
						cijk = dzpf / cijk
					} else {
						cijk = 0
					}

					dxpf = (fijk - fim) / h0
					dypf = (fimjp - fim) / h1
					dymf = (fim - fimjm) / h1
					dzpf = (fimkp - fim) / h2
					dzmf = (fim - fimkm) / h2
					aim := hypot3(dxpf, minmod(dypf, dymf), minmod(dzpf, dzmf))
					if aim > 0 {
						aim = dxpf / aim
					} else {
						aim = 0
					}

					dxpf = (fipjm - fjm) / h0
					dxmf = (fjm - fimjm) / h0
					dypf = (fijk - fjm) / h1
					dzpf = (fjmkp - fjm) / h2
					dzmf = (fjm - fjmkm) / h2
					bjm := hypot3(dypf, minmod(dxpf, dxmf), minmod(dzpf, dzmf))
					if bjm > 0 {
						bjm = dypf / bjm
					} else {
						bjm = 0
					}

					dxpf = (fipkm - fkm) / h0
					dxmf = (fkm - fimkm) / h0
					dypf = (fjpkm - fkm) / h1
					dymf = (fkm - fjmkm) / h1
					dzpf = (fijk - fkm) / h2
					ckm := hypot3(dzpf, minmod(dypf, dymf), minmod(dxpf, dxmf))
					if ckm > 0 {
						ckm = dzpf / ckm
					} else {
						ckm = 0
					}

					dxma := (aijk - aim) / h0
					dymb := (bijk - bjm) / h1
					dzmc := (cijk - ckm) / h2

					b.data[i*n2*pad+j*pad+k] = dxma + dymb + dzmc
				}
			}
		}
	})
	return nil
}

// SNR estimates the peak Poisson SNR over the interior [r, n-r) box of
// radius r, per image.cpp's snr(). Returns ErrInvalidSNRWindow when the
// window leaves no interior voxels.
func (b *Buffer) SNR(r int) (float64, error) {
	if b.Empty() {
		return 0, ErrEmptyBuffer
	}
	n1, n2, n3 := b.shape.N1, b.shape.N2, b.shape.N3
	if n1-r <= r || n2-r <= r || n3-r <= r {
		return 0, ErrInvalidSNRWindow
	}

	maxima := make([]float64, n1-2*r)
	parallelRange(len(maxima), func(lo, hi int) {
		for idx := lo; idx < hi; idx++ {
			i1 := idx + r
			localMax := 0.0
			for i2 := r; i2 < n2-r; i2++ {
				for i3 := r; i3 < n3-r; i3++ {
					s := 0.0
					for j1 := -r; j1 <= r; j1++ {
						for j2 := -r; j2 <= r; j2++ {
							for j3 := -r; j3 <= r; j3++ {
								s += b.at(i1+j1, i2+j2, i3+j3)
							}
						}
					}
					if s > localMax {
						localMax = s
					}
				}
			}
			maxima[idx] = localMax
		}
	})

	maxS := 0.0
	for _, v := range maxima {
		if v > maxS {
			maxS = v
		}
	}

	boxVol := math.Pow(float64(2*r+1), 3)
	return math.Sqrt(maxS / boxVol), nil
}

// Stats returns (min, max, sum) over the real payload.
func (b *Buffer) Stats() (min, max, sum float64, err error) {
	if b.Empty() {
		return 0, 0, 0, ErrEmptyBuffer
	}
	rows, n3, pad := b.rows()
	min = b.data[0]
	max = b.data[0]
	for i := 0; i < rows; i++ {
		base := i * pad
		row := b.data[base : base+n3]
		sum += vecmath.Sum(row)
		for _, v := range row {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	return min, max, sum, nil
}

// NRM2 returns the sum of squared differences between compatible buffers
// (no square root), using vecmath's dot-product kernel on (this - other).
func (b *Buffer) NRM2(other *Buffer) (float64, error) {
	if err := b.checkCompatible(other); err != nil {
		return 0, err
	}
	rows, n3, pad := b.rows()
	var total float64
	diff := make([]float64, n3)
	for i := 0; i < rows; i++ {
		base := i * pad
		a := b.data[base : base+n3]
		c := other.data[base : base+n3]
		for j := range diff {
			diff[j] = a[j] - c[j]
		}
		total += vecmath.DotProduct(diff, diff)
	}
	return total, nil
}

// Swap exchanges all owned state, including plans, with other.
func (b *Buffer) Swap(other *Buffer) {
	b.data, other.data = other.data, b.data
	b.shape, other.shape = other.shape, b.shape
	b.pitch, other.pitch = other.pitch, b.pitch
	b.settings, other.settings = other.settings, b.settings
	b.fwdPlan, other.fwdPlan = other.fwdPlan, b.fwdPlan
	b.invPlan, other.invPlan = other.invPlan, b.invPlan
}

// CopyData copies the full padded storage from other into b.
func (b *Buffer) CopyData(other *Buffer) error {
	if err := b.checkCompatible(other); err != nil {
		return err
	}
	copy(b.data, other.data)
	return nil
}

// Export writes the real payload into a tightly packed n1*n2*n3 slice.
func (b *Buffer) Export(out []float64) error {
	if b.Empty() {
		return ErrEmptyBuffer
	}
	if len(out) != b.shape.Size() {
		return ErrShapeMismatch
	}
	rows, n3, pad := b.rows()
	for i := 0; i < rows; i++ {
		copy(out[i*n3:(i+1)*n3], b.data[i*pad:i*pad+n3])
	}
	return nil
}

// LambdaLSQ computes sum(1-cconv[i])*div[i] / sum(div[i]^2), the
// least-squares regularization weight estimate from image.cpp's
// lambda_lsq. Division by zero yields a non-finite result; the engine
// interprets that explicitly (see package engine).
func LambdaLSQ(cconv, div *Buffer) (float64, error) {
	if err := cconv.checkCompatible(div); err != nil {
		return 0, err
	}
	rows, n3, pad := cconv.rows()
	var lambda, divSqrSum float64
	for i := 0; i < rows; i++ {
		base := i * pad
		c := cconv.data[base : base+n3]
		d := div.data[base : base+n3]
		for j := range c {
			lambda += (1 - c[j]) * d[j]
			divSqrSum += d[j] * d[j]
		}
	}
	return lambda / divSqrSum, nil
}
