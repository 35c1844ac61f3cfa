package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Length caps per field family, in runes.
const (
	maxName     = 80
	maxSurname  = 120
	maxShort    = 160
	maxTitle    = 200
	maxBlock    = 2000
	maxItem     = 200
	maxSkill    = 120
	maxDate     = 20
	maxLevel    = 8
	maxLicense  = 40
	maxInterest = 80
	maxContract = 60
)

var (
	blankRunRx = regexp.MustCompile(`[ \t\f\v]+`)
	manyNLRx   = regexp.MustCompile(`\n{3,}`)

	punctReplacer = strings.NewReplacer(
		"\u2018", "'", "\u2019", "'", "\u201a", "'", "\u201b", "'", "\u00b4", "'",
		"\u201c", `"`, "\u201d", `"`, "\u201e", `"`,
		"\u200b", "", "\u200c", "", "\u200d", "", "\u2060", "", "\ufeff", "", "\u00ad", "",
		"\u00a0", " ", "\u2007", " ", "\u202f", " ",
		"\r\n", "\n", "\r", "\n",
	)
)

// repair undoes UTF-8 text that was decoded as Windows-1252 somewhere upstream
// ("perchÃ©" → "perché", "â€™" → "’"). Strings that do not re-encode to valid UTF-8 are
// returned unchanged.
func repair(s string) string {
	if !strings.Contains(s, "Ã") && !strings.Contains(s, "â€") && !strings.Contains(s, "Â") {
		return s
	}
	b, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil || !utf8.ValidString(b) || b == s {
		return s
	}
	return b
}

// clean is the shared text pass: mojibake repair, typographic quotes, invisible
// characters, NFC and whitespace runs. Line breaks are kept.
func clean(s string) string {
	if s == "" {
		return ""
	}
	s = punctReplacer.Replace(repair(s))
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(blankRunRx.ReplaceAllString(l, " "))
	}
	return strings.TrimSpace(manyNLRx.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

// short cleans a single-line field and caps it.
func short(s string, max int) string {
	return shorten(strings.Join(strings.Fields(clean(s)), " "), max)
}

// block cleans a multi-line field and caps it.
func block(s string) string {
	return shorten(clean(s), maxBlock)
}

func shorten(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max-1])) + "…"
}

// list cleans every item, drops empties and case-insensitive repeats, keeps the first
// spelling and caps the result.
func list(items []string, itemMax, max int) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		it = short(it, itemMax)
		if it == "" {
			continue
		}
		k := strings.ToLower(it)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// personName title-cases names written entirely in upper or lower case and leaves mixed
// case ("McDonald", "De Luca") alone.
func personName(s string, max int) string {
	s = short(s, max)
	if s == "" {
		return ""
	}
	if s != strings.ToUpper(s) && s != strings.ToLower(s) {
		return s
	}
	return cases.Title(language.Und).String(strings.ToLower(s))
}
