// Package lexutil holds the character-level helpers shared by the query
// parser packages: whitespace classification and backslash escapes.
package lexutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsWhitespace reports whether r separates tokens. Separators are unicode
// spaces plus separator and control/format characters.
func IsWhitespace(r rune) bool {
	return unicode.IsSpace(r) || unicode.In(r, unicode.Z, unicode.C)
}

// WhitespaceAt reports whether s has a separator rune starting at byte i and
// returns its width.
func WhitespaceAt(s string, i int) (bool, int) {
	if i >= len(s) {
		return false, 0
	}
	r, w := utf8.DecodeRuneInString(s[i:])
	return IsWhitespace(r), w
}

// SkipWhitespace returns the first offset >= i (and <= max) that does not
// start a separator.
func SkipWhitespace(s string, i, max int) int {
	if max > len(s) {
		max = len(s)
	}
	for i < max {
		ok, w := WhitespaceAt(s, i)
		if !ok {
			break
		}
		i += w
	}
	return i
}

// PrecededByWhitespace reports whether the rune ending right before byte i is
// a separator. Offset 0 counts as preceded.
func PrecededByWhitespace(s string, i int) bool {
	if i <= 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return IsWhitespace(r)
}

// IsBlank reports whether s only contains separators.
func IsBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !IsWhitespace(r) }) < 0
}

// IsEscaped reports whether the byte at i is preceded by an odd number of
// backslashes.
func IsEscaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// Unescape drops every escaping backslash: `\x` becomes `x`. A trailing lone
// backslash is kept.
func Unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// UnescapeByte only unescapes `\c` sequences, leaving other backslashes alone.
func UnescapeByte(s string, c byte) string {
	return strings.ReplaceAll(s, `\`+string(c), string(c))
}

// IndexUnescaped returns the index of the first unescaped c in s, or -1.
func IndexUnescaped(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == c {
			return i
		}
	}
	return -1
}
