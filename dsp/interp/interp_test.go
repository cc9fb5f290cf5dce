package interp

import "testing"

func TestLinear(t *testing.T) {
	if got := Linear(2, 4, 0.25); got != 2.5 {
		t.Fatalf("got %v want 2.5", got)
	}
}

func TestTrilinearCornerValues(t *testing.T) {
	c := Corners{
		{{0, 1}, {2, 3}},
		{{4, 5}, {6, 7}},
	}

	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			for cc := 0; cc < 2; cc++ {
				got := Trilinear(c, float64(a), float64(b), float64(cc))
				want := c[a][b][cc]
				if diff := got - want; diff < -1e-12 || diff > 1e-12 {
					t.Fatalf("corner (%d,%d,%d): got %v want %v", a, b, cc, got, want)
				}
			}
		}
	}
}

func TestTrilinearCenterIsAverage(t *testing.T) {
	c := Corners{
		{{0, 0}, {0, 0}},
		{{8, 8}, {8, 8}},
	}
	got := Trilinear(c, 0.5, 0.5, 0.5)
	if diff := got - 4; diff < -1e-12 || diff > 1e-12 {
		t.Fatalf("got %v want 4", got)
	}
}
