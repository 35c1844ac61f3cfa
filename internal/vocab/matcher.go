package vocab

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Hit is one vocabulary occurrence inside folded text.
type Hit struct {
	Label string
	Term  string
	Start int
	End   int
}

// TermMatcher finds word-delimited vocabulary terms and reports their canonical label.
type TermMatcher struct {
	rx     *regexp.Regexp
	labels map[string]string
}

func newTermMatcher(entries []Labeled) *TermMatcher {
	m := &TermMatcher{labels: map[string]string{}}
	var terms []string
	for _, e := range entries {
		for _, t := range e.Terms {
			ft := strings.TrimSpace(Fold(t))
			if ft == "" {
				continue
			}
			if _, dup := m.labels[ft]; dup {
				continue
			}
			m.labels[ft] = e.Label
			terms = append(terms, ft)
		}
	}
	if len(terms) == 0 {
		return m
	}
	// longest first so "upper intermediate" wins over "intermediate"
	sort.SliceStable(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })

	alts := make([]string, len(terms))
	for i, t := range terms {
		alts[i] = bounded(t)
	}
	m.rx = regexp.MustCompile(`(?:` + strings.Join(alts, "|") + `)`)
	return m
}

func bounded(term string) string {
	q := regexp.QuoteMeta(term)
	first, _ := utf8.DecodeRuneInString(term)
	last, _ := utf8.DecodeLastRuneInString(term)
	if isWordRune(first) {
		q = `\b` + q
	}
	if isWordRune(last) {
		q += `\b`
	}
	return q
}

// FindAll returns every hit in folded, in text order.
func (m *TermMatcher) FindAll(folded string) []Hit {
	if m == nil || m.rx == nil {
		return nil
	}
	var hits []Hit
	for _, loc := range m.rx.FindAllStringIndex(folded, -1) {
		term := folded[loc[0]:loc[1]]
		hits = append(hits, Hit{Label: m.labels[term], Term: term, Start: loc[0], End: loc[1]})
	}
	return hits
}

// Find returns the first hit in folded.
func (m *TermMatcher) Find(folded string) (Hit, bool) {
	if m == nil || m.rx == nil {
		return Hit{}, false
	}
	loc := m.rx.FindStringIndex(folded)
	if loc == nil {
		return Hit{}, false
	}
	term := folded[loc[0]:loc[1]]
	return Hit{Label: m.labels[term], Term: term, Start: loc[0], End: loc[1]}, true
}

// Labels returns the distinct labels found in folded, in first-occurrence order.
func (m *TermMatcher) Labels(folded string) []string {
	var out []string
	seen := map[string]bool{}
	for _, h := range m.FindAll(folded) {
		if !seen[h.Label] {
			seen[h.Label] = true
			out = append(out, h.Label)
		}
	}
	return out
}
