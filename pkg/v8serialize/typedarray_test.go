package v8serialize

import "testing"

func TestFloat16ElementsRoundTrip(t *testing.T) {
	original := []float32{0, 1, -1, 0.5, 3.140625, -65504}
	buf := putFloat16Elements(original)
	if len(buf) != len(original)*2 {
		t.Fatalf("expected %d bytes, got %d", len(original)*2, len(buf))
	}

	got := float16Elements(buf)
	if len(got) != len(original) {
		t.Fatalf("expected %d elements, got %d", len(original), len(got))
	}
	for i, want := range original {
		if got[i] != want {
			t.Errorf("element %d: got %v, want %v", i, got[i], want)
		}
	}
}

func TestFloat16ElementsEmpty(t *testing.T) {
	got := float16Elements(nil)
	if len(got) != 0 {
		t.Errorf("expected no elements, got %v", got)
	}
}

func TestFloat16ElementsLossyForOutOfRangeValues(t *testing.T) {
	// float16 has less precision than float32; a value outside its range
	// collapses to +/-Inf rather than round-tripping exactly.
	buf := putFloat16Elements([]float32{1e30})
	got := float16Elements(buf)
	if got[0] != float32(1e30) && !isInf32(got[0]) {
		t.Errorf("expected overflow to infinity, got %v", got[0])
	}
}

func isInf32(f float32) bool {
	return f > 3.4e38 || f < -3.4e38
}
