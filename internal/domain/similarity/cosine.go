// Package similarity scores embedding vectors against each other.
package similarity

import "math"

// epsilon keeps Cosine finite for zero vectors. It biases near-zero vectors toward 0.
const epsilon float32 = 1e-6

// Cosine returns dot(a,b) / (|a|*|b| + epsilon), roughly in [-1, 1].
// a and b must have equal length.
func Cosine(a, b []float32) float32 {
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	magA := float32(math.Sqrt(float64(normA)))
	magB := float32(math.Sqrt(float64(normB)))
	return dot / (magA*magB + epsilon)
}
