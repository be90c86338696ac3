package recognizer

import "math"

// EuclideanDistance computes the Euclidean (L2) distance between two vectors.
// Face descriptors live in a metric space where distances between two
// captures of the same person typically fall well below 0.6.
// Returns math.MaxFloat64 for mismatched or empty vectors.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
