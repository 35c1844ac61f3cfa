// Package dates recognises the date spellings found in résumés ("03/2019", "2019-03",
// "Mar. 2019", "gennaio 2019", "2019") and date ranges with open ends.
package dates

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/cv-parser/constants"
	"github.com/joseph-ayodele/cv-parser/internal/vocab"
)

// Date is a partial calendar date. Zero Month or Day means unknown.
type Date struct {
	Year    int
	Month   int
	Day     int
	Present bool
}

func (d Date) IsZero() bool {
	return !d.Present && d.Year == 0
}

// String renders ISO-8601 at the known precision, or the present sentinel.
func (d Date) String() string {
	switch {
	case d.Present:
		return constants.Present
	case d.Year == 0:
		return ""
	case d.Month == 0:
		return fmt.Sprintf("%04d", d.Year)
	case d.Day == 0:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
}

// DMY renders DD/MM/YYYY when the day is known, String otherwise.
func (d Date) DMY() string {
	if d.Day > 0 && d.Month > 0 && d.Year > 0 {
		return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
	}
	return d.String()
}

const presentIndex = 1 << 30

// FirstMonth is the earliest month index the date can denote.
func (d Date) FirstMonth() int {
	if d.Present {
		return presentIndex
	}
	m := d.Month
	if m == 0 {
		m = 1
	}
	return d.Year*12 + m - 1
}

// LastMonth is the latest month index the date can denote.
func (d Date) LastMonth() int {
	if d.Present {
		return presentIndex
	}
	m := d.Month
	if m == 0 {
		m = 12
	}
	return d.Year*12 + m - 1
}

// Range is a date range located inside a line.
type Range struct {
	Start  Date
	End    Date
	Raw    string
	Before string
	After  string
}

// Overlaps reports whether two ranges share at least one month. A range without an end is
// treated as the single period of its start.
func (r Range) Overlaps(o Range) bool {
	if r.Start.IsZero() || o.Start.IsZero() {
		return false
	}
	return r.Start.FirstMonth() <= o.last() && o.Start.FirstMonth() <= r.last()
}

func (r Range) last() int {
	if r.End.IsZero() {
		return r.Start.LastMonth()
	}
	return r.End.LastMonth()
}

// Parser is built once from a vocabulary and is safe for concurrent use.
type Parser struct {
	months  map[string]int
	present map[string]bool

	dateRx    *regexp.Regexp
	rangeRx   *regexp.Regexp
	monthRx   *regexp.Regexp
	presentRx *regexp.Regexp
}

const (
	ymdPat  = `\d{4}[./-]\d{1,2}[./-]\d{1,2}\b`
	dmyPat  = `\d{1,2}[./-]\d{1,2}[./-](?:\d{4}|\d{2})\b`
	ymPat   = `\d{4}[./-](?:0?[1-9]|1[0-2])\b`
	myPat   = `\d{1,2}[./-]\d{4}\b`
	yearPat = `(?:19|20)\d{2}\b`
)

var (
	ymdRx  = regexp.MustCompile(`^(\d{4})[./-](\d{1,2})[./-](\d{1,2})$`)
	dmyRx  = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{4}|\d{2})$`)
	ymRx   = regexp.MustCompile(`^(\d{4})[./-](\d{1,2})$`)
	myRx   = regexp.MustCompile(`^(\d{1,2})[./-](\d{4})$`)
	yearRx = regexp.MustCompile(`^((?:19|20)\d{2})$`)
	numRx  = regexp.MustCompile(`\d+`)
)

func NewParser(v *vocab.Vocabulary) *Parser {
	p := &Parser{months: v.MonthNames(), present: map[string]bool{}}

	monthNames := make([]string, 0, len(p.months))
	for m := range p.months {
		monthNames = append(monthNames, m)
	}
	monthAlt := alternation(monthNames)
	// e.g. "12 mar 2019", "Mar. 2019", "march, 2019", "mar '19"
	monthPat := `(?:\d{1,2}\s+)?\b(?:` + monthAlt + `)\.?,?\s*(?:\d{4}\b|'\d{2}\b)`

	presentTerms := v.PresentTerms()
	for _, t := range presentTerms {
		p.present[t] = true
	}
	presentPat := `\b(?:` + alternation(presentTerms) + `)\b`

	var sym, words []string
	for _, s := range v.Separators() {
		if strings.IndexFunc(s, func(r rune) bool { return r >= 'a' && r <= 'z' }) >= 0 {
			words = append(words, s)
		} else {
			sym = append(sym, s)
		}
	}
	sepPat := `\s*(?:` + alternation(sym) + `)\s*`
	if len(words) > 0 {
		sepPat = `(?:` + sepPat + `|\s+(?:` + alternation(words) + `)\s+)`
	}

	datePat := `\b(?:` + strings.Join([]string{ymdPat, dmyPat, ymPat, myPat, monthPat, yearPat}, "|") + `)`
	p.dateRx = regexp.MustCompile(datePat)
	p.monthRx = regexp.MustCompile(`^` + monthPat + `$`)
	p.presentRx = regexp.MustCompile(presentPat)
	if len(presentTerms) == 0 {
		p.rangeRx = regexp.MustCompile(`(` + datePat + `)` + sepPat + `(` + datePat + `)`)
	} else {
		p.rangeRx = regexp.MustCompile(`(` + datePat + `)` + sepPat + `(` + datePat + `|` + presentPat + `)`)
	}
	return p
}

func alternation(terms []string) string {
	sorted := append([]string(nil), terms...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	q := make([]string, 0, len(sorted))
	for _, t := range sorted {
		if t != "" {
			q = append(q, regexp.QuoteMeta(t))
		}
	}
	if len(q) == 0 {
		return `\x{FFFF}`
	}
	return strings.Join(q, "|")
}

// FindRange returns the first date range in line.
func (p *Parser) FindRange(line string) (Range, bool) {
	f := vocab.Fold(line)
	loc := p.rangeRx.FindStringSubmatchIndex(f)
	if loc == nil {
		return Range{}, false
	}
	start, ok := p.Parse(f[loc[2]:loc[3]])
	if !ok {
		return Range{}, false
	}
	end, ok := p.Parse(f[loc[4]:loc[5]])
	if !ok {
		return Range{}, false
	}
	if !end.Present && end.FirstMonth() < start.FirstMonth() {
		return Range{}, false
	}
	return Range{
		Start:  start,
		End:    end,
		Raw:    vocab.Original(line, f, loc[0], loc[1]),
		Before: vocab.Original(line, f, 0, loc[0]),
		After:  vocab.Original(line, f, loc[1], len(f)),
	}, true
}

// FindDate returns the first single date in line as a range without an end.
func (p *Parser) FindDate(line string) (Range, bool) {
	f := vocab.Fold(line)
	for _, loc := range p.dateRx.FindAllStringIndex(f, -1) {
		d, ok := p.Parse(f[loc[0]:loc[1]])
		if !ok {
			continue
		}
		return Range{
			Start:  d,
			Raw:    vocab.Original(line, f, loc[0], loc[1]),
			Before: vocab.Original(line, f, 0, loc[0]),
			After:  vocab.Original(line, f, loc[1], len(f)),
		}, true
	}
	return Range{}, false
}

// Parse reads one date token in any supported spelling.
func (p *Parser) Parse(s string) (Date, bool) {
	f := strings.TrimSpace(vocab.Fold(s))
	f = strings.Join(strings.Fields(f), " ")
	if f == "" {
		return Date{}, false
	}
	if p.present[f] {
		return Date{Present: true}, true
	}
	if m := ymdRx.FindStringSubmatch(f); m != nil {
		return build(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := dmyRx.FindStringSubmatch(f); m != nil {
		a, b, y := atoi(m[1]), atoi(m[2]), expandYear(m[3])
		if b > 12 && a <= 12 {
			a, b = b, a
		}
		return build(y, b, a)
	}
	if m := ymRx.FindStringSubmatch(f); m != nil {
		return build(atoi(m[1]), atoi(m[2]), 0)
	}
	if m := myRx.FindStringSubmatch(f); m != nil {
		return build(atoi(m[2]), atoi(m[1]), 0)
	}
	if m := yearRx.FindStringSubmatch(f); m != nil {
		return build(atoi(m[1]), 0, 0)
	}
	if p.monthRx.MatchString(f) {
		return p.parseMonthName(f)
	}
	return Date{}, false
}

func (p *Parser) parseMonthName(f string) (Date, bool) {
	nums := numRx.FindAllString(f, -1)
	word := strings.TrimSpace(numRx.ReplaceAllString(f, ""))
	word = strings.Trim(word, " .,'")
	month, ok := p.months[word]
	if !ok || len(nums) == 0 {
		return Date{}, false
	}
	yearTok := nums[len(nums)-1]
	year := atoi(yearTok)
	if len(yearTok) == 2 {
		year = expandYear(yearTok)
	}
	day := 0
	if len(nums) == 2 {
		day = atoi(nums[0])
	}
	return build(year, month, day)
}

func build(y, m, d int) (Date, bool) {
	if y < 1900 || y > 2100 || m < 0 || m > 12 || d < 0 || d > 31 {
		return Date{}, false
	}
	if m == 0 {
		d = 0
	}
	return Date{Year: y, Month: m, Day: d}, true
}

func expandYear(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		if y < 50 {
			return 2000 + y
		}
		return 1900 + y
	}
	return y
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
