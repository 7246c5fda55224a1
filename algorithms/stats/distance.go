package stats

import (
	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity calculates cosine similarity between two vectors.
// Defined as 0 when either vector has zero norm or the lengths differ, so
// silent segments compare as dissimilar rather than blowing up.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0.0
	}

	return floats.Dot(a, b) / (normA * normB)
}

// EuclideanDistance calculates the L2 distance between two vectors.
// Returns 0 for mismatched lengths.
func EuclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	return floats.Distance(a, b, 2)
}
