// Package conv provides the 1-D convolution and correlation building blocks
// the rest of the module composes into 3-D operations, plus the diagnostic
// routines cmd/deconvolve-cli uses to report where a PSF's mass sits along
// each axis.
//
// voxel.Buffer.Convolve performs a 3-D circular convolution via FFT; its
// tests cross-check that result against [DirectCircular] applied to a
// flattened row, the same algorithm with no frequency-domain shortcuts.
//
//	result, err := conv.DirectCircular(a, b)
//
// [Correlate] and [FindPeak] locate the displacement at which two 1-D
// profiles line up best, used to report a PSF's peak offset along an axis:
//
//	corr, err := conv.Correlate(profile, template)
//	peakIdx, _ := conv.FindPeak(corr)
//	lag := conv.LagFromIndex(peakIdx, len(template))
package conv
