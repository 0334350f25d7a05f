package storage

import "math"

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector; does not modify the input.
// A zero vector is returned as a zero vector of the same length.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// CosineDistance returns 1 - cos(a, b), a value in [0, 2].
// Vectors of different length are compared over their common prefix.
// If either vector has zero magnitude the distance is 1 (orthogonal).
func CosineDistance(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	d := 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	// rounding can push identical vectors slightly outside the range
	return math.Max(0, math.Min(2, d))
}
