// Package vector provides the dense-vector math shared by the similarity
// index and the redundancy clusterer. Implemented directly: cosine and
// Euclidean distance are single-pass dot-product computations that do not
// justify a numerics dependency.
package vector

import "math"

// CosineSimilarity returns the cosine of the angle between a and b,
// in [-1,1]. Zero-norm or mismatched vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// CosineDistance returns 1 - CosineSimilarity(a, b), in [0,2].
// Identical direction -> 0, opposite -> 2.
func CosineDistance(a, b []float32) float64 {
	return 1 - CosineSimilarity(a, b)
}

// EuclideanDistance returns the L2 distance between a and b.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.MaxFloat64
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Centroid returns the mean vector of vs. Returns nil for empty input.
// All vectors must share the same dimension.
func Centroid(vs [][]float32) []float32 {
	if len(vs) == 0 {
		return nil
	}

	out := make([]float64, len(vs[0]))
	for _, v := range vs {
		for i, x := range v {
			out[i] += float64(x)
		}
	}

	c := make([]float32, len(out))
	n := float64(len(vs))
	for i, x := range out {
		c[i] = float32(x / n)
	}
	return c
}
