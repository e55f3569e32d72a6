package common

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// SafeDiv returns num/den, or 0 when the result would not be a finite number.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return Finite(num / den)
}

// Finite maps NaN and ±Inf to 0.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Clamp01 bounds v to [0,1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Tokenize lowercases text, splits it on anything that is not a letter or digit and
// keeps the distinct words with at least minLen runes.
func Tokenize(text string, minLen int) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len([]rune(w)) >= minLen {
			set[w] = struct{}{}
		}
	}
	return set
}

// NormalizeTags trims and lowercases tags, dropping empties and duplicates.
func NormalizeTags(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

// Overlap returns the sorted intersection of a and b and the size of their union.
func Overlap(a, b map[string]struct{}) (shared []string, union int) {
	for k := range a {
		if _, ok := b[k]; ok {
			shared = append(shared, k)
		}
	}
	sort.Strings(shared)
	union = len(a) + len(b) - len(shared)
	return shared, union
}

// Jaccard is |a∩b| / |a∪b|, 0 for two empty sets.
func Jaccard(a, b map[string]struct{}) float64 {
	shared, union := Overlap(a, b)
	return SafeDiv(float64(len(shared)), float64(union))
}

// Cosine similarity of two vectors; 0 when lengths differ or either has zero norm.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return SafeDiv(dot, math.Sqrt(na)*math.Sqrt(nb))
}
