// Package deconvolve is the library's facade: a Deconvolver binds a PSF,
// optional regularization/SNR/iteration/callback settings, and runs
// convolve or deconvolve over a flat voxel array. Grounded on
// original_source/deconvolve/cpp/src/deconvolve.hpp/.cpp — in particular its
// one rule that every voxel pitch crossing this boundary is in meters and
// gets rescaled to nanometers before reaching the internal packages.
package deconvolve

import (
	"errors"

	"github.com/iocbio/deconvolve/engine"
	"github.com/iocbio/deconvolve/fftplan"
	"github.com/iocbio/deconvolve/psf"
	"github.com/iocbio/deconvolve/settings"
	"github.com/iocbio/deconvolve/voxel"
)

// Errors returned at the library boundary.
var (
	ErrMissingPSF    = errors.New("deconvolve: psf not set")
	ErrShapeMismatch = errors.New("deconvolve: data length does not match shape")
	ErrInvalidSNR    = errors.New("deconvolve: snr must be positive")
	ErrAllocation    = errors.New("deconvolve: allocation failed")
)

const metersToNanometers = 1e9

// Callback is the per-iteration readout signature shared by all three
// SetCallback overloads; k is the iteration index, min/max/sum describe the
// current estimate, nrm2Prev/nrm2PrevPrev are squared-distance deltas to
// the previous and two-back estimate, lambda/lambdaFactor the current TV
// regularization weight and its one-time SNR-derived scale, snr the
// estimated (or user-supplied) peak signal-to-noise ratio. Returning 0
// stops the run.
type Callback = engine.Callback

// CallbackWithUserData is Callback prefixed with an opaque user-data
// pointer the library passes through unchanged, the third set_callback
// overload of the original C++ API.
type CallbackWithUserData func(userData any, k int, min, max, sum, nrm2Prev, nrm2PrevPrev, lambda, lambdaFactor, snr float64) int

// Deconvolver is the library's entry point. The zero value is not usable;
// construct with New.
type Deconvolver struct {
	psf      *psf.PSF
	settings *settings.Snapshot

	regularize    bool
	snr           *float64
	maxIterations int
	callback      Callback
}

// New returns a Deconvolver with no PSF set, regularization disabled, an
// automatically estimated SNR, the default iteration ceiling, and the
// default textual callback.
func New() *Deconvolver {
	return &Deconvolver{psf: &psf.PSF{}, settings: settings.Default()}
}

// SetPSF stores the point-spread-function samples. pitch components are in
// meters; shape.Size() must equal len(data).
func (d *Deconvolver) SetPSF(data []float64, shape voxel.Shape, pitch voxel.Pitch) error {
	if len(data) != shape.Size() {
		return ErrShapeMismatch
	}
	return d.psf.Set(data, shape, scalePitch(pitch, metersToNanometers))
}

// SetCallback installs a plain or closure-bound callback, covering the
// original API's first two set_callback overloads: Go closures already
// capture bound state, so no second method is needed for that case.
func (d *Deconvolver) SetCallback(cb Callback) { d.callback = cb }

// SetCallbackWithUserData installs a callback alongside an opaque
// user-data value threaded through unchanged on every call.
func (d *Deconvolver) SetCallbackWithUserData(cb CallbackWithUserData, userData any) {
	d.callback = func(k int, min, max, sum, nrm2Prev, nrm2PrevPrev, lambda, lambdaFactor, snr float64) int {
		return cb(userData, k, min, max, sum, nrm2Prev, nrm2PrevPrev, lambda, lambdaFactor, snr)
	}
}

// ClearCallback removes any installed callback, reverting to the default
// textual one.
func (d *Deconvolver) ClearCallback() { d.callback = nil }

// EnableRegularization turns on TV regularization for subsequent
// Deconvolve calls.
func (d *Deconvolver) EnableRegularization() { d.regularize = true }

// DisableRegularization turns off TV regularization.
func (d *Deconvolver) DisableRegularization() { d.regularize = false }

// Regularized reports whether TV regularization is currently enabled.
func (d *Deconvolver) Regularized() bool { return d.regularize }

// SetSNR overrides the automatically estimated peak SNR. snr must be
// positive.
func (d *Deconvolver) SetSNR(snr float64) error {
	if snr <= 0 {
		return ErrInvalidSNR
	}
	d.snr = &snr
	return nil
}

// ClearSNR reverts to automatic SNR estimation.
func (d *Deconvolver) ClearSNR() { d.snr = nil }

// SetMaxIterations overrides the default callback's iteration ceiling.
func (d *Deconvolver) SetMaxIterations(n int) { d.maxIterations = n }

// ClearMaxIterations reverts to engine.DefaultMaxIterations.
func (d *Deconvolver) ClearMaxIterations() { d.maxIterations = 0 }

// MaxIterations returns the iteration ceiling currently in effect.
func (d *Deconvolver) MaxIterations() int {
	if d.maxIterations > 0 {
		return d.maxIterations
	}
	return engine.DefaultMaxIterations
}

// SetFFTHandlers replaces the FFT plan factories, producing a new settings
// generation and invalidating any cached OTF on next lookup.
func (d *Deconvolver) SetFFTHandlers(forward, inverse fftplan.Factory, clear fftplan.ClearFunc) {
	d.settings = settings.DeriveFrom(d.settings, forward, inverse, clear)
}

// ClearFFTHandlers reverts to the default FFT plan factories, also
// producing a new settings generation.
func (d *Deconvolver) ClearFFTHandlers() {
	d.settings = settings.DeriveFrom(d.settings, fftplan.DefaultForward(), fftplan.DefaultInverse(), fftplan.DefaultClear)
}

// Convolve runs the PSF's OTF over data once and returns the result. pitch
// is in meters.
func (d *Deconvolver) Convolve(data []float64, shape voxel.Shape, pitch voxel.Pitch) ([]float64, error) {
	if !d.psf.Configured() {
		return nil, ErrMissingPSF
	}
	if len(data) != shape.Size() {
		return nil, ErrShapeMismatch
	}

	e := &engine.Engine{PSF: d.psf, Settings: d.settings}
	return e.Convolve(data, shape, scalePitch(pitch, metersToNanometers))
}

// Deconvolve runs the full Richardson-Lucy reconstruction and returns the
// recovered image. pitch is in meters.
func (d *Deconvolver) Deconvolve(data []float64, shape voxel.Shape, pitch voxel.Pitch) ([]float64, error) {
	if !d.psf.Configured() {
		return nil, ErrMissingPSF
	}
	if len(data) != shape.Size() {
		return nil, ErrShapeMismatch
	}

	e := &engine.Engine{
		PSF:           d.psf,
		Settings:      d.settings,
		Regularize:    d.regularize,
		SNR:           d.snr,
		MaxIterations: d.maxIterations,
		Callback:      d.callback,
	}
	return e.Deconvolve(data, shape, scalePitch(pitch, metersToNanometers))
}

func scalePitch(p voxel.Pitch, factor float64) voxel.Pitch {
	return voxel.Pitch{V1: p.V1 * factor, V2: p.V2 * factor, V3: p.V3 * factor}
}
