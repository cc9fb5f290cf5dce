package vecmath

import "testing"

// TestAddBlockInPlaceDispatch verifies the CPU-feature dispatch picks a
// correct implementation on the current platform.
func TestAddBlockInPlaceDispatch(t *testing.T) {
	dst := []float64{1, 2, 3, 4, 5}
	src := []float64{10, 20, 30, 40, 50}
	expected := []float64{11, 22, 33, 44, 55}

	AddBlockInPlace(dst, src)

	for i := range dst {
		if dst[i] != expected[i] {
			t.Errorf("AddBlockInPlace[%d] = %v, want %v", i, dst[i], expected[i])
		}
	}
}

// BenchmarkAddBlockInPlace_Dispatch benchmarks the CPU-feature dispatch path.
func BenchmarkAddBlockInPlace_Dispatch(b *testing.B) {
	dst := make([]float64, 1024)
	src := make([]float64, 1024)

	for i := range src {
		src[i] = float64(i * 2)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		AddBlockInPlace(dst, src)
	}

	bytes := int64(len(dst)) * 8 * 2 // 2 slices, 8 bytes per float64
	b.SetBytes(bytes)
}
