package normalize

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agext/levenshtein"

	"github.com/joseph-ayodele/cv-parser/internal/dates"
	"github.com/joseph-ayodele/cv-parser/internal/schema"
	"github.com/joseph-ayodele/cv-parser/internal/vocab"
)

// minSimilarity is the organisation-name similarity above which two entries with
// overlapping dates describe the same thing.
const minSimilarity = 0.85

// orgKey keeps letters and digits only, so "ACME S.p.A." and "Acme SpA" compare equal.
func orgKey(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, vocab.Fold(s))
}

func similarity(a, b string) float64 {
	a, b = orgKey(a), orgKey(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 1 - float64(levenshtein.Distance(a, b, nil))/float64(longest)
}

func (n *Normalizer) period(start, end string) (dates.Range, bool) {
	s, ok := n.dates.Parse(start)
	if !ok || s.Present {
		return dates.Range{}, false
	}
	e, _ := n.dates.Parse(end)
	return dates.Range{Start: s, End: e}, true
}

// sameEntry reports whether two dated entries of similar organisations overlap in time.
func (n *Normalizer) sameEntry(orgA, startA, endA, orgB, startB, endB string) bool {
	if similarity(orgA, orgB) < minSimilarity {
		return false
	}
	a, okA := n.period(startA, endA)
	b, okB := n.period(startB, endB)
	return okA && okB && a.Overlaps(b)
}

// collapse merges every entry into the first earlier entry it duplicates, keeping the
// order of first appearance.
func collapse[T any](in []T, same func(a, b T) bool, merge func(dst *T, src T)) []T {
	out := make([]T, 0, len(in))
	for _, e := range in {
		merged := false
		for i := range out {
			if reflect.DeepEqual(out[i], e) || same(out[i], e) {
				merge(&out[i], e)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, e)
		}
	}
	return out
}

func fill(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

// fillLonger keeps the more informative of two descriptions.
func fillLonger(dst *string, src string) {
	if utf8.RuneCountInString(src) > utf8.RuneCountInString(*dst) && !strings.Contains(*dst, src) {
		if *dst != "" && !strings.Contains(src, *dst) {
			*dst += "\n" + src
			return
		}
		*dst = src
	}
}

func union(dst, src []string, itemMax, limit int) []string {
	return list(append(append([]string{}, dst...), src...), itemMax, limit)
}

func (n *Normalizer) dedupeExperience(in []schema.Experience) []schema.Experience {
	return collapse(in, func(a, b schema.Experience) bool {
		return n.sameEntry(a.Company, a.StartDate, a.EndDate, b.Company, b.StartDate, b.EndDate)
	}, func(dst *schema.Experience, src schema.Experience) {
		fill(&dst.Role, src.Role)
		fill(&dst.Company, src.Company)
		fill(&dst.City, src.City)
		fill(&dst.Country, src.Country)
		fill(&dst.StartDate, src.StartDate)
		fill(&dst.EndDate, src.EndDate)
		fillLonger(&dst.Description, src.Description)
		dst.Responsibilities = union(dst.Responsibilities, src.Responsibilities, maxItem, maxItems)
		dst.Achievements = union(dst.Achievements, src.Achievements, maxItem, maxItems)
	})
}

func (n *Normalizer) dedupeEducation(in []schema.Education) []schema.Education {
	return collapse(in, func(a, b schema.Education) bool {
		return n.sameEntry(a.Institution, a.StartDate, a.EndDate, b.Institution, b.StartDate, b.EndDate)
	}, func(dst *schema.Education, src schema.Education) {
		fill(&dst.Degree, src.Degree)
		fill(&dst.Institution, src.Institution)
		fill(&dst.City, src.City)
		fill(&dst.Country, src.Country)
		fill(&dst.StartDate, src.StartDate)
		fill(&dst.EndDate, src.EndDate)
		fill(&dst.Grade, src.Grade)
		fill(&dst.Thesis, src.Thesis)
		fillLonger(&dst.Description, src.Description)
	})
}

// Certifications are identified by name and issuer together; the issue date stands in
// for the period.
func (n *Normalizer) dedupeCertifications(in []schema.Certification) []schema.Certification {
	return collapse(in, func(a, b schema.Certification) bool {
		return n.sameEntry(a.Name+" "+a.Issuer, a.IssuedOn, a.ExpiresOn, b.Name+" "+b.Issuer, b.IssuedOn, b.ExpiresOn)
	}, func(dst *schema.Certification, src schema.Certification) {
		fill(&dst.Name, src.Name)
		fill(&dst.Issuer, src.Issuer)
		fill(&dst.IssuedOn, src.IssuedOn)
		fill(&dst.ExpiresOn, src.ExpiresOn)
		fill(&dst.Credential, src.Credential)
	})
}
