package similarity

import (
	"math"
	"strings"
	"unicode"
)

// Vector is a term-frequency vector over normalized genre tokens.
type Vector map[string]int

// Vectorize builds a term-frequency vector from a comma-delimited genre
// string. Tokens are lowercased and stripped of punctuation so "Sci-Fi" and
// "sci fi" count as the same term.
func Vectorize(genre string) Vector {
	v := make(Vector)
	for _, token := range tokenize(genre) {
		v[token]++
	}
	return v
}

// Cosine returns the cosine similarity between two term vectors, a value
// between 0.0 (no shared terms) and 1.0 (identical direction). Either vector
// being empty yields 0.0.
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for term, count := range a {
		normA += float64(count * count)
		if other, ok := b[term]; ok {
			dot += float64(count * other)
		}
	}
	for _, count := range b {
		normB += float64(count * count)
	}

	if dot == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// tokenize splits a genre string on commas and whitespace into lowercase
// alphanumeric terms.
func tokenize(s string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return tokens
}
