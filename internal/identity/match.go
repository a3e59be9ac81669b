// Package identity decides whether two free-text person names refer to the
// same swimmer.
package identity

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Matches reports whether query and candidate name the same person. Token
// order, case and punctuation are ignored, and every token of the shorter
// name must be a prefix of some token of the longer name or have one as its
// own prefix ("Sam Lee" matches "Lee, Samuel"). Names with the same number
// of tokens must cover each other in both directions, which keeps the
// predicate symmetric. A name with no letters never matches.
func Matches(query, candidate string) bool {
	a, b := Tokens(query), Tokens(candidate)
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	switch {
	case len(a) < len(b):
		return covers(a, b)
	case len(b) < len(a):
		return covers(b, a)
	default:
		return covers(a, b) && covers(b, a)
	}
}

// covers reports whether every token in shorter has a mutual-prefix partner in longer.
func covers(shorter, longer []string) bool {
	for _, s := range shorter {
		if !anyMutualPrefix(s, longer) {
			return false
		}
	}
	return true
}

func anyMutualPrefix(token string, tokens []string) bool {
	for _, t := range tokens {
		if strings.HasPrefix(t, token) || strings.HasPrefix(token, t) {
			return true
		}
	}
	return false
}

// Tokens lowercases name, folds accents, drops everything but Latin letters
// and whitespace, and returns the remaining words sorted.
func Tokens(name string) []string {
	folded, _, err := transform.String(accentFolder(), name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	tokens := strings.Fields(b.String())
	sort.Strings(tokens)
	return tokens
}

// accentFolder decomposes characters and drops combining marks so "José"
// tokenises as "jose". A transformer is stateful, so one is built per call.
func accentFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
