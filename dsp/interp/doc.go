// Package interp provides linear interpolation primitives, from the
// 2-point 1-D case up to the trilinear resampling package psf uses to map
// PSF samples onto an arbitrary target grid.
package interp
