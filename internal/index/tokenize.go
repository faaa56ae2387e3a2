package index

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minTokenLen   = 2
	gramLen       = 3
	minSegmentLen = 3
)

// Tokenize lower-cases text, turns every rune that is not a letter or a
// digit into a separator, and returns the tokens of at least two runes.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTokenLen {
			out = append(out, f)
		}
	}
	return out
}

// Keys returns every index key a token contributes: the token itself and,
// for tokens of three or more runes, each contiguous three-rune window.
func Keys(token string) []string {
	runes := []rune(token)
	if len(runes) < gramLen {
		return []string{token}
	}
	keys := make([]string, 0, len(runes)-gramLen+2)
	keys = append(keys, token)
	for i := 0; i+gramLen <= len(runes); i++ {
		g := string(runes[i : i+gramLen])
		if g != token {
			keys = append(keys, g)
		}
	}
	return keys
}

// PathSegments splits a path into lower-cased segments longer than two runes.
func PathSegments(path string) []string {
	norm := strings.ToLower(filepath.ToSlash(filepath.Clean(path)))
	norm = strings.ReplaceAll(norm, `\`, "/")
	var out []string
	for _, seg := range strings.Split(norm, "/") {
		if utf8.RuneCountInString(seg) >= minSegmentLen {
			out = append(out, seg)
		}
	}
	return out
}
