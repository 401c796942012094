package facematch

import (
	"errors"
	"math"
	"testing"
)

func testVector(dim int, seed float32) Vector {
	v := make(Vector, dim)
	for i := range v {
		v[i] = seed + float32(i%7)*0.125 - float32(i%3)*0.5
	}
	return v
}

func TestCosineSimilarity(t *testing.T) {
	a := testVector(DefaultDim, 1)

	tests := []struct {
		name     string
		a, b     Vector
		expected float64
	}{
		{"identical", a, a.Clone(), 1.0},
		{"negated", a, a.Negate(), -1.0},
		{"orthogonal", Vector{1, 0}, Vector{0, 1}, 0.0},
		{"scaled", Vector{1, 2, 3}, Vector{2, 4, 6}, 1.0},
		{"zero query", make(Vector, 4), Vector{1, 2, 3, 4}, 0.0},
		{"zero candidate", Vector{1, 2, 3, 4}, make(Vector, 4), 0.0},
		{"both zero", make(Vector, 4), make(Vector, 4), 0.0},
		{"length mismatch", Vector{1, 2, 3}, Vector{1, 2}, 0.0},
		{"empty", Vector{}, Vector{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.IsNaN(got) {
				t.Fatalf("CosineSimilarity returned NaN")
			}
			if math.Abs(got-tt.expected) > 1e-6 {
				t.Errorf("CosineSimilarity = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCosineDistance(t *testing.T) {
	v := Vector{0.3, -0.2, 0.9}
	if d := CosineDistance(v, v); math.Abs(d) > 1e-6 {
		t.Errorf("expected distance 0 for identical vectors, got %v", d)
	}
	if d := CosineDistance(v, v.Negate()); math.Abs(d-2) > 1e-6 {
		t.Errorf("expected distance 2 for opposite vectors, got %v", d)
	}
}

func TestEuclideanDistance(t *testing.T) {
	if d := EuclideanDistance(Vector{0, 0}, Vector{3, 4}); math.Abs(d-5) > 1e-9 {
		t.Errorf("expected 5, got %v", d)
	}
	if d := EuclideanDistance(Vector{1}, Vector{1, 2}); d != math.MaxFloat64 {
		t.Errorf("expected MaxFloat64 for length mismatch, got %v", d)
	}
}

func TestCheckDim(t *testing.T) {
	if err := CheckDim(make(Vector, DefaultDim), DefaultDim); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, n := range []int{0, DefaultDim - 1, DefaultDim + 1} {
		err := CheckDim(make(Vector, n), DefaultDim)
		if !errors.Is(err, ErrDimensionMismatch) {
			t.Errorf("len %d: expected ErrDimensionMismatch, got %v", n, err)
		}
	}
}

func TestNearlyEqual(t *testing.T) {
	a := Vector{0.1, 0.2, 0.3}
	b := Vector{0.1 + 1e-7, 0.2, 0.3 - 1e-7}

	if !NearlyEqual(a, b, 1e-6) {
		t.Error("expected vectors to be nearly equal")
	}
	if Equal(a, b) {
		t.Error("expected vectors to differ exactly")
	}
	if NearlyEqual(a, Vector{0.1, 0.2}, 1e-6) {
		t.Error("vectors of different length must not be equal")
	}
	if NearlyEqual(a, Vector{0.1, 0.2, 0.5}, 1e-6) {
		t.Error("expected vectors outside tolerance to differ")
	}
}

func TestVectorClone(t *testing.T) {
	a := Vector{1, 2, 3}
	b := a.Clone()
	b[0] = 9
	if a[0] != 1 {
		t.Error("Clone must not share the backing array")
	}
	if Vector(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
