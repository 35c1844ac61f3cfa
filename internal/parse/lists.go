package parse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/cv-parser/constants"
	"github.com/joseph-ayodele/cv-parser/internal/vocab"
)

var (
	wideGapRx      = regexp.MustCompile(`[ \t]{2,}`)
	licenseClassRx = regexp.MustCompile(`\b(AM|A1|A2|BE|B1|C1E|C1|CE|D1E|D1|DE|A|B|C|D)\b`)
	quotedRx       = regexp.MustCompile(`["“”«»]([^"“”«»]{3,})["“”«»]`)
	yearParenRx    = regexp.MustCompile(`\(\s*(?:19|20)\d{2}[a-z]?\s*\)`)
	authorPairRx   = regexp.MustCompile(`\p{Lu}[\p{L}'\-]+,\s*(?:\p{Lu}\.\s*-?\s*)+`)
	authorSplitRx  = regexp.MustCompile(`\s*(?:;|,|&|\band\b|\be\b|\bund\b|\bet\b|\by\b)\s*`)
	venuePrefixRx  = regexp.MustCompile(`(?i)^(?:in|published in|pubblicato su|presented at)\s*:?\s+`)
)

// tokens splits a list line on commas, semicolons, pipes, bullets, " / " and wide gaps.
// Separators inside parentheses are kept: "Python (Django, Flask)" is one token.
func tokens(s string) []string {
	s = wideGapRx.ReplaceAllString(s, ";")
	s = strings.ReplaceAll(s, " / ", ";")

	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',', ';', '|', '•', '●', '▪', '►', '◦', '·', '\n', '\t':
			if depth == 0 {
				out = appendToken(out, s[start:i])
				start = i + utf8.RuneLen(r)
			}
		}
	}
	return appendToken(out, s[start:])
}

func appendToken(out []string, t string) []string {
	t = strings.TrimSpace(stripBullet(t))
	t = strings.TrimRight(strings.TrimLeft(t, ":- "), ".:; ")
	if t == "" {
		return out
	}
	return append(out, t)
}

// categoryPrefix splits "Databases: PostgreSQL, Redis" into a short label and its list.
func categoryPrefix(s string) (string, string, bool) {
	i := strings.IndexByte(s, ':')
	if i <= 0 {
		return "", "", false
	}
	head, rest := strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	if rest == "" || strings.HasPrefix(rest, "//") {
		return "", "", false
	}
	if n := len(strings.Fields(head)); n == 0 || n > 4 {
		return "", "", false
	}
	if strings.IndexFunc(head, unicode.IsDigit) >= 0 {
		return "", "", false
	}
	return head, rest, true
}

// skills returns one entry per labelled line and one entry collecting every unlabelled
// token. The label is kept as a category hint.
func (p *Parser) skills(body []line) []Entry {
	var out []Entry
	var loose Entry
	for _, ln := range body {
		t := stripBullet(ln.trimmed())
		if t == "" {
			continue
		}
		if head, rest, ok := categoryPrefix(t); ok {
			if items := tokens(rest); len(items) > 0 {
				out = append(out, Entry{KeyCategory: head, KeyItems: items})
			}
			continue
		}
		items := tokens(t)
		if len(items) == 0 {
			continue
		}
		if loose == nil {
			loose = Entry{}
			out = append(out, loose)
		}
		loose.add(KeyItems, items...)
	}
	return out
}

func listEntry(body []line) []Entry {
	e := Entry{}
	for _, ln := range body {
		if t := ln.trimmed(); t != "" {
			e.add(KeyItems, tokens(t)...)
		}
	}
	if len(e) == 0 {
		return nil
	}
	return []Entry{e}
}

func (p *Parser) licenses(body []line) []Entry {
	e := Entry{}
	for _, ln := range body {
		t := stripBullet(ln.trimmed())
		if t == "" {
			continue
		}
		if classes := licenseClassRx.FindAllString(t, -1); len(classes) > 0 {
			e.add(KeyItems, classes...)
			continue
		}
		e.add(KeyItems, tokens(t)...)
	}
	if len(e) == 0 {
		return nil
	}
	return []Entry{e}
}

// publications reads one entry per bullet or paragraph. Quoted titles are preferred; the
// APA form "Authors (2020). Title. Venue." and plain "Authors. Title. Venue." follow.
func (p *Parser) publications(body []line) []Entry {
	var groups []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			groups = append(groups, strings.Join(cur, " "))
			cur = nil
		}
	}
	for _, ln := range body {
		t := ln.trimmed()
		switch {
		case t == "":
			flush()
			continue
		case isBullet(t):
			flush()
			t = stripBullet(t)
		}
		cur = append(cur, t)
	}
	flush()

	var out []Entry
	for _, g := range groups {
		if e := p.publication(g); len(e) > 0 {
			out = append(out, e)
		}
	}
	return out
}

func (p *Parser) publication(text string) Entry {
	e := Entry{}
	if u := urlRx.FindString(text); u != "" {
		e.set(KeyLink, strings.TrimRight(u, ".,;)"))
		text = strings.TrimSpace(strings.Replace(text, u, "", 1))
	}
	if r, ok := p.dates.FindDate(text); ok {
		e.set(KeyDate, r.Start.String())
	}

	var authors, title, venue string
	if loc := quotedRx.FindStringSubmatchIndex(text); loc != nil {
		authors = yearParenRx.ReplaceAllString(text[:loc[0]], "")
		title = text[loc[2]:loc[3]]
		venue = text[loc[1]:]
	} else if loc := yearParenRx.FindStringIndex(text); loc != nil {
		authors = text[:loc[0]]
		parts := sentences(text[loc[1]:])
		if len(parts) > 0 {
			title = parts[0]
		}
		if len(parts) > 1 {
			venue = strings.Join(parts[1:], ". ")
		}
	} else {
		parts := sentences(text)
		switch len(parts) {
		case 0:
		case 1:
			title = parts[0]
		case 2:
			title, venue = parts[0], parts[1]
		default:
			authors, title, venue = parts[0], parts[1], strings.Join(parts[2:], ". ")
		}
	}

	e.set(KeyTitle, trimSep(strings.Trim(title, ` .,"`)))
	e.add(KeyAuthors, splitAuthors(authors)...)
	venue = venuePrefixRx.ReplaceAllString(trimSep(yearParenRx.ReplaceAllString(venue, "")), "")
	e.set(KeyVenue, strings.Trim(venue, " .,;"))
	return e
}

// sentences splits on ". " but not after an initial ("Rossi, M. Title").
func sentences(s string) []string {
	var out []string
	start := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] != '.' || s[i+1] != ' ' {
			continue
		}
		if i >= 1 && (i == 1 || s[i-2] == ' ' || s[i-2] == '.') && unicode.IsUpper(rune(s[i-1])) {
			continue
		}
		if part := strings.TrimSpace(s[start:i]); part != "" {
			out = append(out, part)
		}
		start = i + 2
	}
	if part := strings.Trim(strings.TrimSpace(s[start:]), "."); part != "" {
		out = append(out, part)
	}
	return out
}

func splitAuthors(s string) []string {
	s = strings.Trim(trimSep(s), " ,;")
	if s == "" {
		return nil
	}
	if pairs := authorPairRx.FindAllString(s, -1); len(pairs) > 0 {
		out := make([]string, 0, len(pairs))
		for _, a := range pairs {
			out = append(out, strings.TrimSpace(strings.TrimRight(strings.TrimSpace(a), "-")))
		}
		return out
	}
	var out []string
	for _, a := range authorSplitRx.Split(s, -1) {
		if a = strings.Trim(a, " ."); a != "" && !strings.EqualFold(a, "et al") {
			out = append(out, a)
		}
	}
	return out
}

// availability reads travel and relocation answers and the contract types mentioned.
func (p *Parser) availability(body []line) []Entry {
	e := Entry{}
	for _, ln := range body {
		t := stripBullet(ln.trimmed())
		if t == "" {
			continue
		}
		f := vocab.Fold(t)
		if h, ok := p.vocab.TravelMatcher().Find(f); ok {
			e.set(KeyTravel, answer(t, f, h))
		}
		if h, ok := p.vocab.RelocationMatcher().Find(f); ok {
			e.set(KeyRelocation, answer(t, f, h))
		}
		e.add(KeyContractTypes, p.vocab.ContractTypeMatcher().Labels(f)...)
	}
	if len(e) == 0 {
		return nil
	}
	return []Entry{e}
}

// answer is the text after a colon following the hit, or the whole line when there is
// none ("Disponibile a trasferte").
func answer(orig, folded string, h vocab.Hit) string {
	rest := vocab.Original(orig, folded, h.End, len(folded))
	if i := strings.IndexAny(rest, ":?"); i >= 0 {
		if v := strings.TrimSpace(rest[i+1:]); v != "" {
			return v
		}
	}
	return orig
}

// supplements finds consent statements and driving licences written outside a section of
// their own, typically a closing paragraph or a line in the personal block.
func (p *Parser) supplements(secs []section) []Fragment {
	var hasConsent, hasLicenses bool
	for _, s := range secs {
		hasConsent = hasConsent || s.kind == constants.SectionConsent
		hasLicenses = hasLicenses || s.kind == constants.SectionLicenses
	}

	var out []Fragment
	if !hasConsent {
		if f, ok := p.looseConsent(secs); ok {
			out = append(out, f)
		}
	}
	if !hasLicenses {
		e := Entry{}
		var span Span
		for _, s := range secs {
			for _, ln := range s.body {
				t := ln.trimmed()
				f := vocab.Fold(t)
				h, ok := p.vocab.LicenseMatcher().Find(f)
				if !ok {
					continue
				}
				rest := vocab.Original(t, f, h.End, len(f))
				classes := licenseClassRx.FindAllString(rest, -1)
				if len(classes) == 0 {
					continue
				}
				e.add(KeyItems, classes...)
				if span.End == 0 {
					span.Start = ln.start
				}
				span.End = ln.end
			}
		}
		if len(e) > 0 {
			out = append(out, Fragment{Kind: constants.SectionLicenses, Span: span, Entries: []Entry{e}})
		}
	}
	return out
}

func (p *Parser) looseConsent(secs []section) (Fragment, bool) {
	for _, s := range secs {
		for _, para := range paragraphs(s.body) {
			for i, ln := range para {
				t := ln.trimmed()
				if len(strings.Fields(t)) < 6 || !p.vocab.IsConsent(t) {
					continue
				}
				tail := para[i:]
				return Fragment{
					Kind:    constants.SectionConsent,
					Span:    Span{Start: ln.start, End: tail[len(tail)-1].end},
					Entries: []Entry{{KeyStatement: joinText(tail, " ")}},
				}, true
			}
		}
	}
	return Fragment{}, false
}
