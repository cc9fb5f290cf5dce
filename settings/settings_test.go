package settings

import (
	"testing"

	"github.com/iocbio/deconvolve/fftplan"
)

func TestDefaultUsesInternalFactories(t *testing.T) {
	s := Default()
	if s.Forward == nil || s.Inverse == nil || s.Clear == nil {
		t.Fatalf("Default() left a nil factory")
	}
}

func TestDeriveFromBumpsGeneration(t *testing.T) {
	prev := Default()
	next := DeriveFrom(prev, nil, nil, nil)
	if next.Generation() == prev.Generation() {
		t.Fatalf("expected DeriveFrom to produce a fresh generation")
	}
}

// TestDeriveFromNilFactoryRevertsToDefaultNotPrev guards against DeriveFrom
// treating a nil factory as "keep prev's custom factory": a nil argument
// must fall back to the internal default, even when prev was itself
// derived with a custom factory in that slot.
func TestDeriveFromNilFactoryRevertsToDefaultNotPrev(t *testing.T) {
	customCalled := false
	customForward := func(buf []float64, n1, n2, n3 int) (fftplan.Plan, error) {
		customCalled = true
		return fftplan.DefaultForward()(buf, n1, n2, n3)
	}
	clearCalled := false
	customClear := func(fftplan.Plan) { clearCalled = true }

	custom := DeriveFrom(Default(), customForward, nil, customClear)
	reverted := DeriveFrom(custom, nil, nil, nil)

	buf := make([]float64, 8)
	plan, err := reverted.Forward(buf, 2, 2, 2)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if customCalled {
		t.Fatalf("DeriveFrom(nil) kept prev's custom Forward factory instead of reverting to the default")
	}

	reverted.Clear(plan)
	if clearCalled {
		t.Fatalf("DeriveFrom(nil) kept prev's custom Clear instead of reverting to fftplan.DefaultClear")
	}
}
