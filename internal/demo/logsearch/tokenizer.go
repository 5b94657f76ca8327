package logsearch

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases text and splits it on every rune that is not a letter
// or digit. No stemming or stop-word removal is applied, so "error:" and
// "ERROR" both yield "error" while "45ms" stays one token.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
