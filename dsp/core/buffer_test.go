package core

import (
	"math"
	"testing"
)

func TestCloneDoesNotAlias(t *testing.T) {
	src := []float64{1, 2, 3}
	dst := Clone(src)
	dst[0] = 42
	if src[0] != 1 {
		t.Fatalf("Clone aliased its input: src[0] = %v", src[0])
	}
	if Clone(nil) != nil {
		t.Fatal("Clone(nil) should be nil")
	}
}

func TestSplitDefined(t *testing.T) {
	src := []float64{1, math.NaN(), 3}
	values := make([]float64, 3)
	mask := make([]float64, 3)
	Fill(values, 9)

	SplitDefined(values, mask, src)

	wantValues := []float64{1, 0, 3}
	wantMask := []float64{1, 0, 1}
	for i := range src {
		if values[i] != wantValues[i] || mask[i] != wantMask[i] {
			t.Fatalf("index %d: value=%v mask=%v, want %v/%v", i, values[i], mask[i], wantValues[i], wantMask[i])
		}
	}
}
