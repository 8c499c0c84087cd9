package message

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Text - decodes inbound bytes as UTF-8 and trims trailing whitespace.
// Every invalid byte becomes utf8.RuneError, control characters are kept as is.
// A rune split between two reads is not joined, both halves decode as utf8.RuneError.
func Text(p []byte) string {
	str := strings.Builder{}
	str.Grow(len(p))
	for len(p) > 0 {
		r, size := utf8.DecodeRune(p)
		p = p[size:]
		str.WriteRune(r)
	}
	return strings.TrimRightFunc(str.String(), unicode.IsSpace)
}
