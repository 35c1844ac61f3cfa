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
	emailRx      = regexp.MustCompile(`(?i)[a-z0-9][a-z0-9._%+\-]*@[a-z0-9][a-z0-9.\-]*\.[a-z]{2,}`)
	linkedinRx   = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/(?:in|pub)/[^\s,;|()<>]+`)
	githubRx     = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?github\.com/[^\s,;|()<>]+`)
	urlRx        = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s,;|()<>]+`)
	phoneRx      = regexp.MustCompile(`(?:\(?\+|\b00)?\(?\d[\d ./()\-]{6,}\d`)
	streetRx     = regexp.MustCompile(`(?i)\b(?:via|viale|piazza|piazzale|corso|largo|vicolo|contrada|strada|street|road|avenue|lane|drive|boulevard|blvd|rue|calle|avenida|plaza|platz|weg|allee|st|rd|ave)\b`)
	postalCityRx = regexp.MustCompile(`\b(\d{4,5})\s+(\p{Lu}[\p{L}'.\- ]{1,40}?)\s*(?:\((\p{Lu}{2})\))?\s*(?:[,–—-]|$)`)
	nameTokenRx  = regexp.MustCompile(`^\p{Lu}[\p{L}'\-]*\.?$`)
	slugSplitRx  = regexp.MustCompile(`[._\-+]+`)
	cellSplitRx  = regexp.MustCompile(`\s{3,}|\s+\|\s+`)
)

var honorifics = map[string]bool{
	"dr": true, "dott": true, "dottssa": true, "ing": true, "prof": true, "avv": true,
	"arch": true, "mr": true, "mrs": true, "ms": true, "sig": true, "sigra": true,
}

var documentTitles = []string{"curriculum", "vitae", "resume", "cv", "europass", "lebenslauf"}

// identity reads name, contacts and personal labels. The header and personal sections are
// searched first; e-mail, profile links and explicitly marked phones fall back to the
// whole document.
func (p *Parser) identity(secs []section, all []line) Entry {
	e := Entry{}
	var header, zone []line
	for _, s := range secs {
		switch s.kind {
		case constants.SectionHeader:
			header = append(header, s.body...)
			zone = append(zone, s.body...)
		case constants.SectionPersonal:
			zone = append(zone, s.body...)
		}
	}

	p.labels(e, zone)
	nameLine := p.name(e, header)
	if nameLine < 0 {
		for _, s := range secs {
			if s.kind == constants.SectionPersonal {
				p.name(e, s.body)
			}
		}
	}
	p.contacts(e, zone, true)
	p.contacts(e, all, false)
	p.places(e, header, nameLine)

	if e.String(KeyFirstName) == "" && e.String(KeyLastName) == "" {
		if first, last, ok := nameFromSlug(linkedinSlug(e.String(KeyLinkedIn))); ok {
			e.set(KeyFirstName, first)
			e.set(KeyLastName, last)
		} else if first, last, ok := nameFromSlug(emailLocal(e.String(KeyEmail))); ok {
			e.set(KeyFirstName, first)
			e.set(KeyLastName, last)
		}
	}
	return e
}

// personal reads a personal-details section: labelled fields and the address.
func (p *Parser) personal(body []line) Entry {
	e := Entry{}
	p.labels(e, body)
	p.places(e, body, -1)
	return e
}

func (p *Parser) labels(e Entry, lines []line) {
	for i, ln := range lines {
		for _, cell := range cells(ln.trimmed()) {
			key, val, ok := p.label(cell)
			if !ok && strings.HasSuffix(cell, ":") && i+1 < len(lines) {
				// value on the next line
				if next := lines[i+1].trimmed(); next != "" {
					key, val, ok = p.vocab.Label(cell + " " + next)
				}
			}
			if !ok {
				continue
			}
			switch key {
			case "full_name":
				if first, last, ok := p.personName(val); ok {
					e.set(KeyFirstName, first)
					e.set(KeyLastName, last)
				}
			case KeyFirstName, KeyLastName,
				KeyBirthDate, KeyBirthPlace, KeyNationality, KeySex, KeyMaritalStatus,
				KeyCity, KeyProvince, KeyCountry, KeyPostalCode:
				e.set(key, val)
			case KeyStreet:
				address(e, val)
			}
		}
	}
}

// label is vocab.Label that also accepts a wide layout gap as the separator.
func (p *Parser) label(s string) (string, string, bool) {
	if key, val, ok := p.vocab.Label(s); ok {
		return key, val, true
	}
	if strings.Contains(s, ":") {
		return "", "", false
	}
	if i := strings.Index(s, "  "); i > 0 {
		return p.vocab.Label(s[:i] + ": " + strings.TrimSpace(s[i:]))
	}
	return "", "", false
}

// name looks for a person-name line and returns its index, or -1.
func (p *Parser) name(e Entry, lines []line) int {
	if e.String(KeyFirstName) != "" || e.String(KeyLastName) != "" {
		return -1
	}
	seen := 0
	for i, ln := range lines {
		t := ln.trimmed()
		if t == "" {
			continue
		}
		if seen++; seen > 8 {
			break
		}
		for _, cell := range cells(t) {
			if first, last, ok := p.personName(cell); ok {
				e.set(KeyFirstName, first)
				e.set(KeyLastName, last)
				return i
			}
		}
	}
	return -1
}

// personName accepts 2 to 4 capitalised alphabetic tokens, optionally after an honorific.
// "ROSSI Mario" and "Rossi, Mario" put the surname first.
func (p *Parser) personName(s string) (first, last string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > 50 || strings.ContainsAny(s, "@/:0123456789") {
		return "", "", false
	}
	if _, _, labeled := p.vocab.Label(s); labeled {
		return "", "", false
	}
	if _, conf := p.vocab.MatchHeading(s); conf >= 2 {
		return "", "", false
	}
	f := vocab.Fold(s)
	for _, w := range documentTitles {
		if vocab.ContainsWord(f, w) {
			return "", "", false
		}
	}

	surnameFirst := false
	if parts := strings.Split(s, ","); len(parts) == 2 {
		s = strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[0])
	} else if len(parts) > 2 {
		return "", "", false
	}

	var toks []string
	for _, t := range strings.Fields(s) {
		if len(toks) == 0 && honorifics[strings.ReplaceAll(vocab.Fold(t), ".", "")] {
			continue
		}
		toks = append(toks, t)
	}
	if len(toks) < 2 || len(toks) > 4 {
		return "", "", false
	}
	for _, t := range toks {
		if !nameTokenRx.MatchString(t) {
			return "", "", false
		}
		if utf8.RuneCountInString(t) < 2 {
			return "", "", false
		}
	}

	// "ROSSI Mario": upper-case surname block followed by a mixed-case given name
	if isUpper(toks[0]) && !isUpper(toks[len(toks)-1]) {
		surnameFirst = true
	}
	if surnameFirst {
		n := 0
		for n < len(toks) && isUpper(toks[n]) {
			n++
		}
		return strings.Join(toks[n:], " "), strings.Join(toks[:n], " "), true
	}
	return toks[0], strings.Join(toks[1:], " "), true
}

func (p *Parser) contacts(e Entry, lines []line, primary bool) {
	for _, ln := range lines {
		t := ln.trimmed()
		if t == "" {
			continue
		}
		if m := emailRx.FindString(t); m != "" {
			e.set(KeyEmail, strings.TrimRight(m, "."))
		}
		if m := linkedinRx.FindString(t); m != "" {
			e.set(KeyLinkedIn, strings.TrimRight(m, "./"))
		}
		if m := githubRx.FindString(t); m != "" {
			e.set(KeyGitHub, strings.TrimRight(m, "./"))
		}
		if primary {
			for _, u := range urlRx.FindAllString(t, -1) {
				lu := strings.ToLower(u)
				if strings.Contains(lu, "linkedin.com") || strings.Contains(lu, "github.com") {
					continue
				}
				e.set(KeyWebsite, strings.TrimRight(u, "."))
				break
			}
		}

		for _, cell := range cells(t) {
			key, val, labeled := p.label(cell)
			phoneLabel := labeled && (key == KeyPhone || key == KeyMobile)
			if !primary && !phoneLabel && !strings.Contains(cell, "+") {
				continue
			}
			src := cell
			if phoneLabel {
				src = val
			}
			for _, ph := range p.phones(src) {
				if ph == e.String(KeyPhone) || ph == e.String(KeyMobile) {
					continue
				}
				target := KeyPhone
				switch {
				case phoneLabel:
					target = key
				case e.String(KeyPhone) != "":
					target = KeyMobile
				}
				e.set(target, ph)
			}
		}
	}
}

// phones returns phone-looking digit runs: 8 to 15 digits, not a date or a date range.
func (p *Parser) phones(s string) []string {
	var out []string
	for _, m := range phoneRx.FindAllString(s, -1) {
		m = strings.TrimSpace(strings.TrimRight(m, " .-/("))
		if strings.HasPrefix(m, "(+") {
			m = strings.Replace(m, "(+", "+", 1)
			m = strings.Replace(m, ")", "", 1)
		}
		digits := 0
		for _, r := range m {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits < 8 || digits > 15 {
			continue
		}
		if !strings.HasPrefix(m, "+") && !strings.HasPrefix(m, "00") && p.hasDate(m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// places finds an unlabelled street address, "postal code City" and "City, Country" lines.
func (p *Parser) places(e Entry, lines []line, skip int) {
	for i, ln := range lines {
		if i == skip {
			continue
		}
		for _, cell := range cells(ln.trimmed()) {
			if cell == "" || strings.ContainsAny(cell, "@:") || len(cell) > 120 {
				continue
			}
			hasDigit := strings.IndexFunc(cell, unicode.IsDigit) >= 0
			switch {
			case hasDigit && streetRx.MatchString(cell) && e.String(KeyStreet) == "":
				address(e, cell)
			case hasDigit && postalCityRx.MatchString(cell) && e.String(KeyCity) == "" && len(p.phones(cell)) == 0:
				address(e, cell)
			case !hasDigit && looksLikeLocation(cell):
				e.set(KeyLocation, cell)
			}
		}
	}
}

// address splits "Via Roma 1, 20100 Milano (MI), Italia".
func address(e Entry, s string) {
	s = strings.Trim(strings.TrimSpace(s), " ,;")
	m := postalCityRx.FindStringSubmatchIndex(s)
	if m == nil {
		e.set(KeyStreet, s)
		return
	}
	e.set(KeyPostalCode, s[m[2]:m[3]])
	e.set(KeyCity, strings.TrimSpace(s[m[4]:m[5]]))
	if m[6] >= 0 {
		e.set(KeyProvince, s[m[6]:m[7]])
	}
	e.set(KeyStreet, strings.Trim(s[:m[0]], " ,;-–"))
	if rest := strings.Trim(s[m[1]:], " ,;-–()"); rest != "" && strings.IndexFunc(rest, unicode.IsDigit) < 0 {
		e.set(KeyCountry, rest)
	}
}

// looksLikeLocation accepts "Milano, Italia" style lines: two or three comma parts of
// at most three capitalised words each.
func looksLikeLocation(s string) bool {
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return false
	}
	for _, part := range parts {
		words := strings.Fields(part)
		if len(words) == 0 || len(words) > 3 {
			return false
		}
		r, _ := utf8.DecodeRuneInString(words[0])
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func cells(s string) []string {
	parts := cellSplitRx.Split(s, -1)
	out := parts[:0]
	for _, c := range parts {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func linkedinSlug(u string) string {
	i := strings.Index(strings.ToLower(u), "linkedin.com/")
	if i < 0 {
		return ""
	}
	rest := u[i+len("linkedin.com/"):]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[j+1:]
	}
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func emailLocal(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return ""
}

// nameFromSlug reads "mario-rossi-3b2a1c" or "mario.rossi" as a name. Tokens with digits
// are dropped; two to four alphabetic tokens are required.
func nameFromSlug(slug string) (first, last string, ok bool) {
	var toks []string
	for _, t := range slugSplitRx.Split(slug, -1) {
		if utf8.RuneCountInString(t) < 2 || strings.IndexFunc(t, func(r rune) bool { return !unicode.IsLetter(r) }) >= 0 {
			continue
		}
		toks = append(toks, strings.ToLower(t))
	}
	if len(toks) < 2 || len(toks) > 4 {
		return "", "", false
	}
	return toks[0], strings.Join(toks[1:], " "), true
}
