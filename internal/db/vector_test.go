package db

import (
	"math"
	"strings"
	"testing"
)

func TestVectorLiteral_RoundTrip(t *testing.T) {
	t.Parallel()

	in := []float32{0.25, -1, 0.0078125}
	literal, err := VectorLiteral(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(literal, "[") || !strings.HasSuffix(literal, "]") {
		t.Fatalf("malformed literal: %q", literal)
	}

	out, err := ParseVectorLiteral(literal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("element %d mismatch: got %f want %f", i, out[i], in[i])
		}
	}
}

func TestVectorLiteral_RejectsEmptyAndNonFinite(t *testing.T) {
	t.Parallel()

	if _, err := VectorLiteral(nil); err == nil {
		t.Fatalf("expected error for empty vector")
	}
	if _, err := VectorLiteral([]float32{1, float32(math.NaN())}); err == nil {
		t.Fatalf("expected error for NaN element")
	}
	if _, err := VectorLiteral([]float32{float32(math.Inf(1))}); err == nil {
		t.Fatalf("expected error for infinite element")
	}
}

func TestParseVectorLiteral_Malformed(t *testing.T) {
	t.Parallel()

	for _, literal := range []string{"", "[]", "0.5,0.5", "[0.5,abc]"} {
		if _, err := ParseVectorLiteral(literal); err == nil {
			t.Fatalf("expected error for %q", literal)
		}
	}
}
