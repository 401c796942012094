// Package facematch provides the vector math and matching rules shared by the
// registry, the recognition session and the web handlers.
package facematch

import (
	"errors"
	"fmt"
	"slices"
)

// DefaultDim is the output size of the MobileFaceNet extractor.
const DefaultDim = 192

// UnknownName is reported whenever no candidate clears the threshold.
const UnknownName = "Unknown"

// EmptyRegistryName is reported by the matcher when there is nothing to compare against.
const EmptyRegistryName = "No registered identities"

// ErrDimensionMismatch is returned when a vector does not have the configured length.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Vector is a face embedding produced by the external extractor.
type Vector []float32

// Entry pairs a registered person with their embedding.
type Entry struct {
	Name      string
	Embedding Vector
}

// CheckDim verifies that v has exactly dim elements.
func CheckDim(v Vector, dim int) error {
	if len(v) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), dim)
	}
	return nil
}

// Clone returns a copy of v that does not share its backing array.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	return slices.Clone(v)
}

// Negate returns -v.
func (v Vector) Negate() Vector {
	out := make(Vector, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}

// Equal reports whether a and b hold exactly the same values.
func Equal(a, b Vector) bool {
	return slices.Equal(a, b)
}

// NearlyEqual reports whether a and b have the same length and every pair of
// elements differs by at most tol.
func NearlyEqual(a, b Vector, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		if d > tol || d < -tol {
			return false
		}
	}
	return true
}
