// Package embed maps text to vectors and scores vector similarity.
package embed

import (
	"context"
	"errors"
	"math"
)

var (
	ErrDimensionMismatch = errors.New("embedding dimensions differ")
	ErrZeroVector        = errors.New("zero-length embedding")
)

type Vector []float32

// Embedder turns text into fixed-size vectors and compares them.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	// Similarity returns a score in [-1, 1].
	Similarity(a, b Vector) (float64, error)
}

// Cosine returns the cosine similarity of a and b, clamped to [-1, 1].
func Cosine(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, ErrZeroVector
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, s)), nil
}
