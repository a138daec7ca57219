package cluster

import (
	"math"

	"github.com/rotisserie/eris"
)

// ErrDegenerateVector is returned when a similarity comparison involves a
// missing, empty, or zero-magnitude vector. Callers treat it as
// non-matching rather than a failure.
var ErrDegenerateVector = eris.New("cluster: degenerate vector")

// Cosine computes the cosine similarity between two vectors.
func Cosine(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0, ErrDegenerateVector
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, ErrDegenerateVector
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
