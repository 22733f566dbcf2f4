package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	multiSpace  = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// FoldText lowercases, strips diacritics and punctuation, and collapses
// whitespace. Punctuation becomes a word break, so "IV-line" folds to "iv line".
func FoldText(s string) string {
	// transform.Chain keeps state, build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = punctuation.ReplaceAllString(folded, " ")
	folded = multiSpace.ReplaceAllString(folded, " ")
	return strings.TrimSpace(folded)
}

// HasTerm reports whether term occurs in folded text starting at a word
// boundary. The end of the term is not anchored, so stems like "anesthesi"
// match "anesthesia" and "anesthesiologist".
func HasTerm(folded, term string) bool {
	return hasAt(folded, term, false)
}

// HasWord is HasTerm anchored at both ends, so "fee" matches "surgeon fee"
// but not "feeding".
func HasWord(folded, word string) bool {
	return hasAt(folded, word, true)
}

func hasAt(folded, term string, wholeWord bool) bool {
	if term == "" {
		return false
	}
	for offset := 0; offset < len(folded); {
		i := strings.Index(folded[offset:], term)
		if i < 0 {
			return false
		}
		pos := offset + i
		end := pos + len(term)
		if isBreak(folded, pos-1) && (!wholeWord || isBreak(folded, end)) {
			return true
		}
		offset = pos + 1
	}
	return false
}

// isBreak reports whether position i of folded is outside the text or a
// word separator.
func isBreak(folded string, i int) bool {
	return i < 0 || i >= len(folded) || folded[i] == ' ' || folded[i] == '\n'
}

// HasAnyTerm returns the first term of terms found in folded, in list order.
func HasAnyTerm(folded string, terms []string) (string, bool) {
	for _, term := range terms {
		if HasTerm(folded, term) {
			return term, true
		}
	}
	return "", false
}

// HasAnyWord is HasAnyTerm over whole words.
func HasAnyWord(folded string, words []string) (string, bool) {
	for _, word := range words {
		if HasWord(folded, word) {
			return word, true
		}
	}
	return "", false
}
