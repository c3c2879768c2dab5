package embed

import (
	"context"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// LocalCaveat describes what the offline embedder can and cannot judge.
const LocalCaveat = "lexical dry-run mode, scores word overlap only and rejects paraphrased answers"

// Local is an offline embedder: a signed hashed bag of lowercase words.
// Case and punctuation do not change the vector. Answers sharing few words
// with the question score low even when correct, e.g. "The Moon orbits
// Earth" against "What is the Earth's satellite?" is about 0.45.
type Local struct {
	Dim int
}

func NewLocal(dim int) *Local {
	if dim <= 0 {
		dim = 512
	}
	return &Local{Dim: dim}
}

func (l *Local) Embed(_ context.Context, text string) (Vector, error) {
	v := make(Vector, l.Dim)
	for _, tok := range tokenize(text) {
		h := xxhash.Sum64String(tok)
		idx := h % uint64(l.Dim)
		if h>>63 == 1 {
			v[idx]--
		} else {
			v[idx]++
		}
	}
	return v, nil
}

func (l *Local) Similarity(a, b Vector) (float64, error) { return Cosine(a, b) }

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimSuffix(strings.Trim(f, "'"), "'s")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
