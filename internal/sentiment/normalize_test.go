package sentiment

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"punctuation and trailing spaces", "Hello, World!!!  ", "hello world"},
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"collapses inner whitespace", "a \t\t b\n\nc", "a b c"},
		{"keeps digits and underscores", "Order #42_b shipped!", "order 42_b shipped"},
		{"keeps unicode letters", "Café ÜBER naïve!", "café über naïve"},
		{"drops symbols between words", "good-bye :) friend", "goodbye friend"},
		{"only punctuation", "?!...", ""},
		{"information separators split words", "a\x1fb\x1cc", "a b c"},
		{"unicode spaces", "a\u00a0b\u3000c", "a b c"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"Hello, World!!!  ",
		"  The Food was GREAT, but the service... meh.  ",
		"İstanbul — ÇOK güzel!!",
		"tabs\tand\nnewlines\r\n",
		"emoji 😀 and math ∑ x²",
		"",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeOutputShape(t *testing.T) {
	inputs := []string{
		"  Mixed CASE, with; punctuation: everywhere!  ",
		"multiple     spaces\there",
		"¿Qué tal? ¡Muy bien!",
	}

	for _, in := range inputs {
		out := Normalize(in)
		assert.Equal(t, strings.ToLower(out), out)
		assert.NotContains(t, out, "  ")
		assert.Equal(t, strings.TrimSpace(out), out)
		for _, r := range out {
			assert.True(t, r == ' ' || isWordRune(r), "unexpected rune %q in %q", r, out)
			assert.False(t, unicode.IsPunct(r), "punctuation %q in %q", r, out)
		}
	}
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank("   \t\n"))
	assert.True(t, IsBlank("  "))
	assert.False(t, IsBlank(" x "))
	assert.False(t, IsBlank("!!!"))
	assert.True(t, IsBlank("\x1f"))
	assert.True(t, IsBlank(" \x1c\x1d\x1e\u00a0"))
}
