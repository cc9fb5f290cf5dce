package testutil

import "testing"

func TestRequireSliceNearlyEqualPasses(t *testing.T) {
	RequireSliceNearlyEqual(t, []float64{1, 2, 3.0000000001}, []float64{1, 2, 3}, 1e-9)
}

func TestRequireFinitePasses(t *testing.T) {
	RequireFinite(t, []float64{1, -2, 0, 3.5})
}
