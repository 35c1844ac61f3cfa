package parse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/cv-parser/constants"
)

type line struct {
	text  string
	start int // byte offsets into the document text
	end   int
}

func (l line) blank() bool { return strings.TrimSpace(l.text) == "" }

func (l line) trimmed() string { return strings.TrimSpace(l.text) }

func splitLines(text string) []line {
	var out []line
	start := 0
	for start <= len(text) {
		i := strings.IndexByte(text[start:], '\n')
		if i < 0 {
			if start < len(text) {
				out = append(out, line{text: text[start:], start: start, end: len(text)})
			}
			break
		}
		out = append(out, line{text: text[start : start+i], start: start, end: start + i})
		start += i + 1
	}
	return out
}

type section struct {
	kind    constants.SectionKind
	heading string
	span    Span
	body    []line
	// inline sections hold a single "Heading: content" line
	inline bool
}

const (
	maxHeadingRunes = 60
	maxHeadingWords = 6
)

var (
	fiveDigitsRx = regexp.MustCompile(`\d{5}`)
	bulletChars  = " \t•●▪►◦‣*·-–—"
)

// segment cuts the document into sections at heading lines. Text before the first heading
// is the header section, which is always returned first even when empty.
func (p *Parser) segment(lines []line) []section {
	secs := []section{{kind: constants.SectionHeader}}
	cur := &secs[0]
	sawHeading := false

	for i, ln := range lines {
		kind, heading, inline, ok := p.headingAt(lines, i, sawHeading)
		if !ok {
			if cur.inline && !ln.blank() {
				// label lines after an inline heading in a label block go back to that block
				if prev := enclosing(secs); prev != nil && prev.kind != cur.kind {
					secs = append(secs, section{kind: prev.kind, heading: prev.heading, span: Span{ln.start, ln.start}})
					cur = &secs[len(secs)-1]
				} else {
					cur.inline = false
				}
			}
			cur.body = append(cur.body, ln)
			if !ln.blank() {
				cur.span.End = ln.end
			}
			continue
		}

		sec := section{kind: kind, heading: heading, span: Span{ln.start, ln.end}}
		if inline != "" {
			off := strings.LastIndex(ln.text, inline)
			if off < 0 {
				off = len(ln.text) - len(inline)
			}
			sec.body = []line{{text: inline, start: ln.start + off, end: ln.end}}
			sec.inline = cur.kind == constants.SectionHeader || cur.kind == constants.SectionPersonal || cur.inline
		}
		secs = append(secs, sec)
		cur = &secs[len(secs)-1]
		sawHeading = true
	}
	return secs
}

// enclosing returns the last non-inline section, the block an inline heading interrupted.
func enclosing(secs []section) *section {
	for i := len(secs) - 1; i >= 0; i-- {
		if !secs[i].inline {
			return &secs[i]
		}
	}
	return nil
}

// headingAt decides whether lines[i] opens a section. inline is the content that follows
// a "Heading: content" prefix on the same line.
func (p *Parser) headingAt(lines []line, i int, sawHeading bool) (kind constants.SectionKind, heading, inline string, ok bool) {
	raw := lines[i].trimmed()
	if raw == "" {
		return "", "", "", false
	}

	if idx := strings.IndexByte(raw, ':'); idx > 0 {
		head := strings.TrimSpace(raw[:idx])
		rest := strings.TrimSpace(raw[idx+1:])
		if rest != "" && headingShape(head) {
			if k, conf := p.vocab.MatchHeading(head); conf == 3 {
				return k, head, rest, true
			}
			return "", "", "", false
		}
	}

	if !headingShape(raw) || p.hasDate(raw) {
		return "", "", "", false
	}
	words := len(strings.Fields(strings.Trim(raw, bulletChars+":")))
	isolated := isolatedLine(lines, i)
	upper := isUpper(raw)
	colon := strings.HasSuffix(raw, ":")

	k, conf := p.vocab.MatchHeading(raw)
	switch {
	case conf == 3:
		return k, cleanHeading(raw), "", true
	case conf == 2 && (words <= 4 || isolated || upper || colon):
		return k, cleanHeading(raw), "", true
	case conf == 1 && words <= 4 && (isolated || upper || colon):
		return k, cleanHeading(raw), "", true
	}

	// unknown ALL-CAPS titles only count once the document has real sections, so a
	// capitalised name at the top stays in the header
	if sawHeading && upper && isolated && !strings.ContainsAny(raw, "0123456789") {
		return constants.SectionOther, cleanHeading(raw), "", true
	}
	return "", "", "", false
}

func headingShape(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > maxHeadingRunes {
		return false
	}
	if len(strings.Fields(s)) > maxHeadingWords {
		return false
	}
	if strings.Contains(s, "@") || strings.Contains(s, "://") || strings.Contains(strings.ToLower(s), "www.") {
		return false
	}
	if fiveDigitsRx.MatchString(s) {
		return false
	}
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func (p *Parser) hasDate(s string) bool {
	if _, ok := p.dates.FindRange(s); ok {
		return true
	}
	_, ok := p.dates.FindDate(s)
	return ok
}

func isolatedLine(lines []line, i int) bool {
	before := i == 0 || lines[i-1].blank()
	after := i+1 >= len(lines) || lines[i+1].blank()
	return before || after
}

// isUpper reports whether s has at least two letters and no lower-case ones.
func isUpper(s string) bool {
	letters := 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.IsLower(r) {
			return false
		}
		letters++
	}
	return letters >= 2
}

func cleanHeading(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, bulletChars)
	s = strings.TrimRight(s, " \t:")
	return strings.Join(strings.Fields(s), " ")
}
