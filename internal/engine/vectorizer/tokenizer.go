package vectorizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// minTokenRunes is the shortest run of word characters kept as a token.
const minTokenRunes = 2

// analyze turns a document into its unigram and n-gram terms, up to maxN
// tokens per gram.
func analyze(text string, maxN int) []string {
	tokens := tokenize(preprocess(text))
	if maxN <= 1 || len(tokens) < 2 {
		return tokens
	}

	terms := make([]string, 0, len(tokens)*maxN)
	terms = append(terms, tokens...)
	for n := 2; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// preprocess strips accents and lowercases.
func preprocess(text string) string {
	return strings.ToLower(stripAccents(cleanText(text)))
}

// tokenize extracts runs of at least minTokenRunes word characters.
func tokenize(text string) []string {
	var tokens []string
	var current []rune
	flush := func() {
		if len(current) >= minTokenRunes {
			tokens = append(tokens, string(current))
		}
		current = current[:0]
	}
	for _, r := range text {
		if isWordChar(r) {
			current = append(current, r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// cleanText removes control characters and replaces whitespace with spaces.
func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == 0 || r == 0xFFFD || isControl(r) {
			continue
		}
		if unicode.IsSpace(r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripAccents removes combining marks after NFKD decomposition.
func stripAccents(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range norm.NFKD.String(text) {
		if unicode.In(r, unicode.Mn) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}
