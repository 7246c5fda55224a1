package stats

import (
	"gonum.org/v1/gonum/floats"
)

// L2NormFloor is the norm below which a vector is treated as silent and
// returned unnormalized.
const L2NormFloor = 1e-8

// L2Normalize returns a unit-norm copy of the vector. Vectors with a norm
// below L2NormFloor are returned as an unchanged copy; scaling them would
// amplify numerical noise into a spurious direction.
func L2Normalize(data []float64) []float64 {
	normalized := make([]float64, len(data))
	copy(normalized, data)

	norm := floats.Norm(normalized, 2)
	if norm < L2NormFloor {
		return normalized
	}

	floats.Scale(1.0/norm, normalized)
	return normalized
}
