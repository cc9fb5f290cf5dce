// Package psf holds the raw point-spread-function samples and produces, on
// demand, the resampled and forward-transformed optical transfer function
// (OTF) an engine needs for a given target shape/pitch/settings triple,
// grounded on original_source/deconvolve/cpp/src/psf.hpp/.cpp. The
// trilinear resampling here generalizes
// CWBudde-algo-dsp/dsp/interp.LagrangeInterpolator's order-1 linear case to
// three nested axis interpolations.
package psf

import (
	"errors"
	"sync"

	"github.com/iocbio/deconvolve/dsp/interp"
	"github.com/iocbio/deconvolve/settings"
	"github.com/iocbio/deconvolve/voxel"
)

// Errors returned by PSF operations.
var (
	ErrShapeMismatch = errors.New("psf: data length does not match shape")
	ErrEmptyPSF      = errors.New("psf: requesting otf from an empty psf")
)

// PSF holds raw point-spread-function samples on their own voxel grid plus
// at most one cached OTF.
type PSF struct {
	mu sync.Mutex

	data  []float64
	shape voxel.Shape
	pitch voxel.Pitch

	cache *cacheEntry
}

type cacheEntry struct {
	generation int64
	shape      voxel.Shape
	pitch      voxel.Pitch
	otf        *voxel.Buffer
}

// Set stores the raw PSF samples and invalidates any cached OTF. An empty
// data slice clears the PSF. A non-empty slice whose length does not equal
// shape.Size() is a user error.
func (p *PSF) Set(data []float64, shape voxel.Shape, pitch voxel.Pitch) error {
	if len(data) != 0 && len(data) != shape.Size() {
		return ErrShapeMismatch
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.data = append([]float64(nil), data...)
	p.shape = shape
	p.pitch = pitch
	p.cache = nil
	return nil
}

// Configured reports whether Set has been called with non-empty data.
func (p *PSF) Configured() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.data) > 0
}

// getind maps a physical offset to a continuous PSF-grid index, per
// psf.cpp's getind(): distance/voxel + elem*0.5 - 0.5.
func getind(distance, voxel float64, elem int) float64 {
	return distance/voxel + float64(elem)*0.5 - 0.5
}

// OTF returns the cached OTF if it matches (settings generation, target
// shape, target pitch); otherwise it resamples the PSF onto the target
// grid, shifts its origin, L1-normalizes it, forward-transforms it, caches
// and returns it.
func (p *PSF) OTF(snap *settings.Snapshot, targetShape voxel.Shape, targetPitch voxel.Pitch) (*voxel.Buffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.data) < 1 {
		return nil, ErrEmptyPSF
	}

	if p.cache != nil &&
		p.cache.generation == snap.Generation() &&
		p.cache.shape == targetShape &&
		p.cache.pitch == targetPitch {
		return p.cache.otf, nil
	}

	n1, n2, n3 := targetShape.N1, targetShape.N2, targetShape.N3
	m1, m2, m3 := p.shape.N1, p.shape.N2, p.shape.N3

	interp := make([]float64, targetShape.Size())

	for i1 := 0; i1 < n1; i1++ {
		d1 := targetPitch.V1 * ((float64(i1) + 0.5) - float64(n1)*0.5)
		ind1 := getind(d1, p.pitch.V1, m1)
		j1 := int(ind1)
		x1 := ind1 - float64(j1)

		for i2 := 0; i2 < n2; i2++ {
			d2 := targetPitch.V2 * ((float64(i2) + 0.5) - float64(n2)*0.5)
			ind2 := getind(d2, p.pitch.V2, m2)
			j2 := int(ind2)
			x2 := ind2 - float64(j2)

			for i3 := 0; i3 < n3; i3++ {
				d3 := targetPitch.V3 * ((float64(i3) + 0.5) - float64(n3)*0.5)
				ind3 := getind(d3, p.pitch.V3, m3)
				j3 := int(ind3)
				x3 := ind3 - float64(j3)

				var value float64
				if j1 >= 0 && j1 < m1-1 && j2 >= 0 && j2 < m2-1 && j3 >= 0 && j3 < m3-1 {
					value = interp.Trilinear(corners(p.data, m2, m3, j1, j2, j3), x1, x2, x3)
				}

				s1 := ((i1 + n1/2 + 1) % n1)
				s2 := ((i2 + n2/2 + 1) % n2)
				s3 := ((i3 + n3/2 + 1) % n3)
				interp[(s1*n2+s2)*n3+s3] = value
			}
		}
	}

	var sum float64
	for _, v := range interp {
		sum += v
	}
	for i := range interp {
		interp[i] /= sum
	}

	buf, err := voxel.New(snap, interp, targetShape, targetPitch)
	if err != nil {
		return nil, err
	}
	if err := buf.FFT(); err != nil {
		return nil, err
	}

	p.cache = &cacheEntry{
		generation: snap.Generation(),
		shape:      targetShape,
		pitch:      targetPitch,
		otf:        buf,
	}
	return buf, nil
}

// corners gathers the eight PSF samples surrounding (j1,j2,j3) into the
// layout interp.Trilinear expects.
func corners(data []float64, m2, m3, j1, j2, j3 int) interp.Corners {
	at := func(a, b, c int) float64 { return data[(a*m2+b)*m3+c] }
	return interp.Corners{
		{{at(j1, j2, j3), at(j1, j2, j3+1)}, {at(j1, j2+1, j3), at(j1, j2+1, j3+1)}},
		{{at(j1+1, j2, j3), at(j1+1, j2, j3+1)}, {at(j1+1, j2+1, j3), at(j1+1, j2+1, j3+1)}},
	}
}
