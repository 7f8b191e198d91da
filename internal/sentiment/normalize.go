package sentiment

import (
	"strings"
	"unicode"
)

// Normalize lowercases text, drops every rune that is not a word character
// (letter, number, underscore) or whitespace, collapses whitespace runs to a
// single space and trims the result. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = strings.Map(func(r rune) rune {
		if isWordRune(r) || isSpace(r) {
			return r
		}
		return -1
	}, text)
	return strings.Join(strings.FieldsFunc(text, isSpace), " ")
}

// IsBlank reports whether text is empty or whitespace only.
func IsBlank(text string) bool {
	return strings.TrimFunc(text, isSpace) == ""
}

// isSpace extends unicode.IsSpace with the ASCII information separators
// U+001C..U+001F, which clients commonly treat as whitespace.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= '\x1c' && r <= '\x1f')
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
