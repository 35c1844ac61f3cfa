package parse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/cv-parser/constants"
	"github.com/joseph-ayodele/cv-parser/internal/dates"
	"github.com/joseph-ayodele/cv-parser/internal/vocab"
)

var (
	percentRx  = regexp.MustCompile(`\d+(?:[.,]\d+)?\s?%`)
	gradeRx    = regexp.MustCompile(`(?i)\b\d{2,3}\s*/\s*\d{2,3}(?:\s*(?:e lode|cum laude|with honou?rs))?|\b(?:gpa|voto|grade)\s*:?\s*\d+(?:[.,]\d+)?(?:\s*/\s*\d+(?:[.,]\d+)?)?`)
	numberedRx = regexp.MustCompile(`^\d{1,2}[.)]\s+`)
	splitters  = []string{" @ ", " at ", " presso ", " chez ", " bei ", " | ", " – ", " — ", " - ", ", "}
)

const (
	maxHeaderWords = 14
	maxDateRest    = 10
)

type dateMark struct {
	idx  int
	rng  dates.Range
	rest []string // header text sharing the date line
}

// dated splits a section into entries at lines carrying a date range (or a single date,
// except for experience). Up to two short lines directly above a date line belong to
// its entry.
func (p *Parser) dated(kind constants.SectionKind, body []line) []Entry {
	var marks []dateMark
	for i, ln := range body {
		if ln.blank() {
			continue
		}
		if m, ok := p.dateLine(kind, ln.trimmed()); ok {
			m.idx = i
			marks = append(marks, m)
		}
	}
	if len(marks) == 0 {
		return p.undated(kind, body)
	}

	starts := make([]int, len(marks))
	for k, m := range marks {
		lo := 0
		if k > 0 {
			lo = marks[k-1].idx + 1
		}
		limit := 2
		if len(m.rest) > 0 {
			limit = 1
		}
		s := m.idx
		for n := 0; n < limit && s-1 >= lo; n++ {
			if !headerCandidate(body[s-1].trimmed()) {
				break
			}
			s--
		}
		starts[k] = s
	}

	entries := make([]Entry, 0, len(marks))
	for k, m := range marks {
		end := len(body)
		if k+1 < len(marks) {
			end = starts[k+1]
		}
		var header []string
		for _, ln := range body[starts[k]:m.idx] {
			header = append(header, ln.trimmed())
		}
		header = append(header, m.rest...)
		details := body[m.idx+1 : end]
		if k == 0 && starts[0] > 0 {
			// text above the first entry that was not taken as its header
			details = append(append([]line{}, body[:starts[0]]...), details...)
		}

		e := Entry{}
		e.set(KeyStart, m.rng.Start.String())
		if !m.rng.End.IsZero() {
			e.set(KeyEnd, m.rng.End.String())
		}
		if len(header) == 0 {
			header, details = leadingHeader(details)
		}
		p.fillHeader(e, header)
		p.fillDetails(kind, e, details)
		entries = append(entries, e)
	}
	return entries
}

func (p *Parser) dateLine(kind constants.SectionKind, s string) (dateMark, bool) {
	if r, ok := p.dates.FindRange(s); ok {
		return dateMark{rng: r, rest: dateRest(r)}, true
	}
	if kind == constants.SectionExperience {
		return dateMark{}, false
	}
	r, ok := p.dates.FindDate(s)
	if !ok {
		return dateMark{}, false
	}
	// a lone date only delimits an entry at the edge of a short line
	before, after := trimSep(r.Before), trimSep(r.After)
	if before != "" && after != "" {
		return dateMark{}, false
	}
	if len(strings.Fields(before+" "+after)) > maxDateRest {
		return dateMark{}, false
	}
	return dateMark{rng: r, rest: dateRest(r)}, true
}

func dateRest(r dates.Range) []string {
	var rest []string
	for _, s := range []string{r.Before, r.After} {
		for _, c := range cells(trimSep(s)) {
			if c = trimSep(c); c != "" {
				rest = append(rest, c)
			}
		}
	}
	return rest
}

func trimSep(s string) string {
	return strings.Trim(s, " \t|,;:()[]–—-·•")
}

func headerCandidate(s string) bool {
	if s == "" || isBullet(s) {
		return false
	}
	words := strings.Fields(s)
	if strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "...") && len(words) > 3 && !abbreviation(words[len(words)-1]) {
		return false
	}
	return len(words) <= maxHeaderWords
}

// abbreviation reports whether a word ending in "." is a short form such as "S.p.A.",
// "Inc." or "GmbH." rather than the end of a sentence.
func abbreviation(w string) bool {
	core := strings.TrimSuffix(w, ".")
	if core == "" {
		return false
	}
	if strings.Contains(core, ".") {
		return true
	}
	first, _ := utf8.DecodeRuneInString(core)
	return unicode.IsUpper(first) && utf8.RuneCountInString(core) <= 4
}

// leadingHeader takes up to two header lines from the top of details, for layouts that
// put the dates above the title.
func leadingHeader(details []line) ([]string, []line) {
	var header []string
	i := 0
	for i < len(details) && len(header) < 2 {
		t := details[i].trimmed()
		if t == "" {
			if len(header) > 0 {
				break
			}
			i++
			continue
		}
		if !headerCandidate(t) {
			break
		}
		header = append(header, t)
		i++
	}
	return header, details[i:]
}

// undated handles sections without dates: certifications are one per line, other kinds
// one per paragraph.
func (p *Parser) undated(kind constants.SectionKind, body []line) []Entry {
	var entries []Entry
	if kind == constants.SectionCertifications {
		for _, ln := range body {
			t := stripBullet(ln.trimmed())
			if t == "" {
				continue
			}
			if key, val, ok := p.vocab.Label(t); ok && len(entries) > 0 && detailLabel(key) {
				applyLabel(entries[len(entries)-1], key, val)
				continue
			}
			e := Entry{}
			p.fillHeader(e, []string{t})
			entries = append(entries, e)
		}
		return entries
	}
	for _, para := range paragraphs(body) {
		header, details := leadingHeader(para)
		if len(header) > 1 && kind == constants.SectionProjects {
			// a project's second line is usually its description
			details = append([]line{{text: header[1]}}, details...)
			header = header[:1]
		}
		e := Entry{}
		p.fillHeader(e, header)
		p.fillDetails(kind, e, details)
		if len(e) > 0 {
			entries = append(entries, e)
		}
	}
	return entries
}

// fillHeader reads title, organisation and location from the header parts of an entry.
func (p *Parser) fillHeader(e Entry, parts []string) {
	var cleaned []string
	for _, s := range parts {
		s = stripBullet(s)
		if s == "" {
			continue
		}
		if key, val, ok := p.vocab.Label(s); ok && detailLabel(key) {
			applyLabel(e, key, val)
			continue
		}
		if u := urlRx.FindString(s); u != "" && strings.TrimSpace(strings.Replace(s, u, "", 1)) == "" {
			e.set(KeyLink, u)
			continue
		}
		cleaned = append(cleaned, s)
	}
	if len(cleaned) == 0 {
		return
	}

	title, org, ok := splitRoleOrg(cleaned[0])
	rest := cleaned[1:]
	if !ok {
		title = cleaned[0]
		if len(rest) > 0 {
			org, rest = rest[0], rest[1:]
		}
	}
	org, loc := splitLocation(org)
	e.set(KeyTitle, title)
	e.set(KeyOrganization, org)
	e.set(KeyLocation, loc)
	var extra []string
	for _, r := range rest {
		if e.String(KeyLocation) == "" && looksLikePlace(r) {
			e.set(KeyLocation, r)
			continue
		}
		extra = append(extra, r)
	}
	e.set(KeyDescription, strings.Join(extra, " "))
}

// splitRoleOrg splits "Role @ Org", "Role at Org", "Role - Org", "Role | Org", "Role, Org".
func splitRoleOrg(s string) (string, string, bool) {
	f := vocab.Fold(s)
	for _, sep := range splitters {
		i := strings.Index(f, sep)
		if i <= 0 {
			continue
		}
		left := strings.TrimSpace(vocab.Original(s, f, 0, i))
		right := strings.TrimSpace(vocab.Original(s, f, i+len(sep), len(f)))
		left, right = trimSep(left), trimSep(right)
		if left != "" && right != "" {
			return left, right, true
		}
	}
	return s, "", false
}

// splitLocation takes a trailing ", City" or "(City)" off an organisation.
func splitLocation(org string) (string, string) {
	org = strings.TrimSpace(org)
	if strings.HasSuffix(org, ")") {
		if i := strings.LastIndex(org, "("); i > 0 {
			loc := strings.TrimSpace(org[i+1 : len(org)-1])
			if looksLikePlace(loc) {
				return strings.TrimSpace(org[:i]), loc
			}
		}
	}
	if i := strings.Index(org, ", "); i > 0 {
		loc := strings.TrimSpace(org[i+2:])
		if looksLikePlace(loc) || looksLikeLocation(loc) {
			return strings.TrimSpace(org[:i]), loc
		}
	}
	return org, ""
}

// looksLikePlace accepts one to three capitalised words without digits.
func looksLikePlace(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > 3 || strings.IndexFunc(s, unicode.IsDigit) >= 0 {
		return false
	}
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsUpper(r) && !isConnector(w) {
			return false
		}
	}
	return true
}

func isConnector(w string) bool {
	switch strings.ToLower(w) {
	case "di", "de", "del", "della", "la", "le", "sur", "am", "an", "der", "upon", "on", "in", "nell'emilia":
		return true
	}
	return false
}

func (p *Parser) fillDetails(kind constants.SectionKind, e Entry, details []line) {
	var desc []string
	lastBullet := ""
	for _, ln := range details {
		raw := ln.trimmed()
		if raw == "" {
			lastBullet = ""
			continue
		}
		if key, val, ok := p.vocab.Label(raw); ok && detailLabel(key) {
			applyLabel(e, key, val)
			lastBullet = ""
			continue
		}
		if kind == constants.SectionEducation {
			if g := gradeRx.FindString(raw); g != "" && e.String(KeyGrade) == "" {
				e.set(KeyGrade, g)
				if len(strings.Fields(raw)) <= 4 {
					continue
				}
			}
		}
		if u := urlRx.FindString(raw); u != "" {
			e.set(KeyLink, strings.TrimRight(u, "."))
			if strings.TrimSpace(strings.Replace(raw, u, "", 1)) == "" {
				continue
			}
		}

		bullet := isBullet(raw)
		text := stripBullet(raw)
		if !bullet && lastBullet != "" && startsLower(text) {
			// wrapped continuation of the previous bullet
			p.extendLast(e, lastBullet, text)
			continue
		}
		switch {
		case p.isAchievement(text):
			e.add(KeyResults, text)
			lastBullet = KeyResults
		case bullet:
			e.add(KeyItems, text)
			lastBullet = KeyItems
		default:
			desc = append(desc, text)
			lastBullet = ""
		}
	}
	if len(desc) > 0 {
		d := strings.Join(desc, " ")
		if cur := e.String(KeyDescription); cur != "" {
			d = cur + " " + d
		}
		e[KeyDescription] = d
	}
}

func (p *Parser) extendLast(e Entry, key, text string) {
	l := e.List(key)
	if len(l) == 0 {
		e.add(key, text)
		return
	}
	l[len(l)-1] += " " + text
}

func (p *Parser) isAchievement(s string) bool {
	if percentRx.MatchString(s) {
		return true
	}
	_, ok := p.vocab.AchievementMatcher().Find(vocab.Fold(s))
	return ok
}

func detailLabel(key string) bool {
	switch key {
	case KeyTechnologies, KeyRole, KeyGrade, KeyThesis, KeyCredential, KeyIssuer, KeyLink:
		return true
	}
	return false
}

func applyLabel(e Entry, key, val string) {
	if key == KeyTechnologies {
		e.add(KeyTechnologies, tokens(val)...)
		return
	}
	e.set(key, val)
}

func isBullet(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if numberedRx.MatchString(s) {
		return true
	}
	r, size := utf8.DecodeRuneInString(s)
	if !strings.ContainsRune("•●▪►◦‣*·-–—o", r) {
		return false
	}
	if r == 'o' || r == '-' {
		// "o " and "- " bullets need the space; "-5%" or "open" are text
		return len(s) > size && s[size] == ' '
	}
	return true
}

func stripBullet(s string) string {
	s = strings.TrimSpace(s)
	if !isBullet(s) {
		return s
	}
	if loc := numberedRx.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:])
	}
	_, size := utf8.DecodeRuneInString(s)
	return strings.TrimSpace(s[size:])
}

func startsLower(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLower(r)
}

func paragraphs(body []line) [][]line {
	var out [][]line
	var cur []line
	for _, ln := range body {
		if ln.blank() {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, ln)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func joinText(body []line, sep string) string {
	var parts []string
	for _, ln := range body {
		if t := ln.trimmed(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, sep)
}
