// Package settings implements the immutable, generation-keyed configuration
// snapshot consumed by voxel.Buffer and psf's OTF cache, grounded on
// original_source/deconvolve/cpp/src/image_settings.hpp/.cpp's
// ImageSettings<T>: each new snapshot carries a fresh id, so callers can cheaply tell whether a cached plan
// or OTF is still valid without comparing the factories themselves.
package settings

import (
	"sync/atomic"

	"github.com/iocbio/deconvolve/fftplan"
)

var generationCounter int64

// Snapshot is an immutable bundle of the FFT plan factories in effect for a
// given Buffer. Two snapshots compare equal (Same) iff they carry the same
// generation id; every Default and DeriveFrom call issues a fresh id,
// exactly as ImageSettings::same compares only m_id.
type Snapshot struct {
	generation int64
	Forward    fftplan.Factory
	Inverse    fftplan.Factory
	Clear      fftplan.ClearFunc
}

// Default returns a Snapshot built from the default fftplan factories.
func Default() *Snapshot {
	return &Snapshot{
		generation: atomic.AddInt64(&generationCounter, 1),
		Forward:    fftplan.DefaultForward(),
		Inverse:    fftplan.DefaultInverse(),
		Clear:      fftplan.DefaultClear,
	}
}

// DeriveFrom returns a new Snapshot with a fresh generation id built from the
// supplied factories. Passing nil for any of forward, inverse, clear falls
// back to the internal default for that slot, exactly as
// ImageSettings::fftw_forward_plan (and its inverse/clear counterparts) fall
// back to the built-in plan when no custom factory was configured — prev's
// custom factories are never implicitly carried forward.
func DeriveFrom(prev *Snapshot, forward, inverse fftplan.Factory, clear fftplan.ClearFunc) *Snapshot {
	if forward == nil {
		forward = fftplan.DefaultForward()
	}
	if inverse == nil {
		inverse = fftplan.DefaultInverse()
	}
	if clear == nil {
		clear = fftplan.DefaultClear
	}
	return &Snapshot{
		generation: atomic.AddInt64(&generationCounter, 1),
		Forward:    forward,
		Inverse:    inverse,
		Clear:      clear,
	}
}

// Generation returns the snapshot's generation id.
func (s *Snapshot) Generation() int64 { return s.generation }

// Same reports whether two snapshots share the same generation id.
func (s *Snapshot) Same(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.generation == other.generation
}
