// Package fftplan provides the pluggable 3-D FFT plan facility consumed by
// package voxel. A Plan wraps an in-place real-to-complex or
// complex-to-real transform over a padded buffer; a Factory builds one for
// a given buffer and shape.
//
// The default factory is grounded on
// original_source/deconvolve/cpp/src/fftw_plan.hpp/.cpp and
// image_settings.cpp: plan creation is guarded by a process-wide mutex and
// a one-time global initializer, mirroring FFTW's own non-reentrant planner
// and the C++ library's `static std::mutex fftw_mutex` /
// `static bool fftw_initialized` pair. A caller-supplied Factory trio
// bypasses both, exactly as the original's `set_fftw_handlers` does.
package fftplan

import (
	"sync"

	"github.com/iocbio/deconvolve/internal/dft"
)

// Plan executes a previously built in-place transform over a specific
// buffer.
type Plan interface {
	// Execute runs the transform in place over the buffer it was built for.
	Execute()
}

// Factory builds a Plan for an in-place transform over buf, a padded 3-D
// buffer with logical shape n1 x n2 x n3.
type Factory func(buf []float64, n1, n2, n3 int) (Plan, error)

// ClearFunc releases any resources a Plan might be holding. The default
// plans hold none; ClearFunc exists so custom factories that do wrap
// external handles (an FFTW plan, say) have a symmetric teardown hook.
type ClearFunc func(Plan)

type funcPlan struct {
	run func()
}

func (p *funcPlan) Execute() { p.run() }

var (
	initMu   sync.Mutex
	initDone bool
)

// globalInit performs the one-time setup the default factories share,
// mirroring fftw_init()'s single invocation guarded by a static bool in the
// original implementation. The direct/fast DFT backend needs no process-wide
// state beyond the per-length twiddle cache in package dft, but the mutex
// and once-guard are kept so a future FFTW-backed or cgo factory can reuse
// the same contract without changing call sites.
func globalInit() {
	initMu.Lock()
	defer initMu.Unlock()
	if initDone {
		return
	}
	initDone = true
}

// DefaultForward returns the default forward-transform factory.
func DefaultForward() Factory {
	return func(buf []float64, n1, n2, n3 int) (Plan, error) {
		globalInit()
		return &funcPlan{run: func() {
			dft.Forward3D(buf, n1, n2, n3)
		}}, nil
	}
}

// DefaultInverse returns the default inverse-transform factory.
func DefaultInverse() Factory {
	return func(buf []float64, n1, n2, n3 int) (Plan, error) {
		globalInit()
		return &funcPlan{run: func() {
			dft.Inverse3D(buf, n1, n2, n3)
		}}, nil
	}
}

// DefaultClear is the no-op clear handler paired with the default factories.
func DefaultClear(Plan) {}
