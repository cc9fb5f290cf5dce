package interp

// Linear interpolates between two samples at fractional position frac,
// the 2-point case every higher-dimensional interpolator here is built
// from: v0 + frac*(v1-v0).
func Linear(v0, v1, frac float64) float64 {
	return v0 + frac*(v1-v0)
}

// Corners holds the eight samples surrounding a target point on a regular
// 3-D grid, indexed [a][b][c] with a,b,c in {0,1} along the three axes.
type Corners [2][2][2]float64

// Trilinear interpolates within c at fractional offsets (x1,x2,x3) in
// [0,1]^3 along each axis, applying Linear successively along axis 1, then
// axis 2, then axis 3 (https://en.wikipedia.org/wiki/Trilinear_interpolation).
// This generalizes the package's 1-D linear case to the three nested axis
// interpolations package psf needs to resample a PSF onto a target grid.
func Trilinear(c Corners, x1, x2, x3 float64) float64 {
	c00 := Linear(c[0][0][0], c[1][0][0], x1)
	c01 := Linear(c[0][0][1], c[1][0][1], x1)
	c10 := Linear(c[0][1][0], c[1][1][0], x1)
	c11 := Linear(c[0][1][1], c[1][1][1], x1)

	c0 := Linear(c00, c10, x2)
	c1 := Linear(c01, c11, x2)

	return Linear(c0, c1, x3)
}
