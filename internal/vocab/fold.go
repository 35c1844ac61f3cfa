package vocab

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldCache sync.Map // rune -> rune

// Fold lowercases s and strips diacritics rune by rune, so the result always has the same
// number of runes as s and rune offsets can be mapped back to the original text.
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteRune(foldRune(r))
	}
	return b.String()
}

func foldRune(r rune) rune {
	if r < utf8.RuneSelf {
		return unicode.ToLower(r)
	}
	switch r {
	case '‘', '’', '‛', '′', '`':
		return '\''
	}
	if v, ok := foldCache.Load(r); ok {
		return v.(rune)
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, string(r))
	folded := unicode.ToLower(r)
	if err == nil && utf8.RuneCountInString(out) == 1 {
		c, _ := utf8.DecodeRuneInString(out)
		folded = unicode.ToLower(c)
	}
	foldCache.Store(r, folded)
	return folded
}

// Original returns the substring of orig that corresponds to the byte range [start, end)
// of Fold(orig).
func Original(orig, folded string, start, end int) string {
	rs := utf8.RuneCountInString(folded[:start])
	re := rs + utf8.RuneCountInString(folded[start:end])
	o := []rune(orig)
	if re > len(o) {
		re = len(o)
	}
	if rs > re {
		return ""
	}
	return string(o[rs:re])
}

// ContainsWord reports whether term occurs in s delimited by non-alphanumerics.
// Both arguments are expected to be folded.
func ContainsWord(s, term string) bool {
	return IndexWord(s, term) >= 0
}

// IndexWord is ContainsWord returning the byte offset of the first delimited match.
func IndexWord(s, term string) int {
	if term == "" {
		return -1
	}
	from := 0
	for from <= len(s)-len(term) {
		i := strings.Index(s[from:], term)
		if i < 0 {
			return -1
		}
		i += from
		if boundaryBefore(s, i) && boundaryAfter(s, i+len(term)) {
			return i
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		from = i + size
	}
	return -1
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
