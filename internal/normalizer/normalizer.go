// Package normalizer canonicalizes merchant-name strings for comparison.
//
// Normalization is pure and total: any input, including the empty string,
// yields a canonical lowercase, alphanumeric-and-space-only form with
// collapsed whitespace. A configurable alias table maps the many spellings
// users produce for the same merchant ("mcd", "mickey d s") onto one
// canonical name, so extending merchant coverage is a configuration change
// rather than an algorithm change.
package normalizer

import (
	"strings"
	"unicode"
)

// AliasTable maps merchant spellings to their canonical form. Keys and values
// are folded at construction time, so entries may be written naturally
// ("Mickey D's": "McDonalds").
type AliasTable map[string]string

// Normalizer canonicalizes merchant names
type Normalizer struct {
	aliases map[string]string
}

// New creates a Normalizer with the given alias table. A nil table is valid
// and disables alias substitution.
func New(aliases AliasTable) *Normalizer {
	folded := make(map[string]string, len(aliases))
	for alias, canonical := range aliases {
		folded[fold(alias)] = fold(canonical)
	}
	return &Normalizer{aliases: folded}
}

// Normalize returns the canonical form of a raw merchant string. Absent or
// unrecognizable input yields the empty string, never an error.
func (n *Normalizer) Normalize(raw string) string {
	normalized := fold(raw)
	if canonical, ok := n.aliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// Equal reports whether two raw merchant strings normalize to the same
// non-empty canonical form.
func (n *Normalizer) Equal(a, b string) bool {
	na := n.Normalize(a)
	return na != "" && na == n.Normalize(b)
}

// fold lowercases, replaces every non-alphanumeric rune with a space, and
// collapses runs of whitespace.
func fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}
