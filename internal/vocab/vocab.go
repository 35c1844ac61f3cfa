// Package vocab holds the multilingual vocabularies used to recognise résumé structure:
// section headings, proficiency levels, language names, month names, field labels and skill
// categories. Vocabularies are data; new languages are added in YAML, not code.
package vocab

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/cv-parser/constants"
)

//go:embed default.yaml
var defaultYAML []byte

type Section struct {
	Kind  constants.SectionKind `yaml:"kind"`
	Terms []string              `yaml:"terms"`
}

type Labeled struct {
	Label string   `yaml:"label"`
	Terms []string `yaml:"terms"`
}

type Language struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
}

type LanguageMarkers struct {
	Written []string `yaml:"written"`
	Spoken  []string `yaml:"spoken"`
}

type Availability struct {
	Travel        []string  `yaml:"travel"`
	Relocation    []string  `yaml:"relocation"`
	ContractTypes []Labeled `yaml:"contract_types"`
}

type SkillGroup struct {
	Category string   `yaml:"category"`
	Terms    []string `yaml:"terms"`
}

// Vocabulary is immutable once loaded and safe for concurrent use.
type Vocabulary struct {
	Sections             []Section           `yaml:"sections"`
	Levels               []Labeled           `yaml:"levels"`
	LanguageMarkers      LanguageMarkers     `yaml:"language_markers"`
	LanguageCertificates []string            `yaml:"language_certificates"`
	Languages            []Language          `yaml:"languages"`
	Months               map[int][]string    `yaml:"months"`
	Present              []string            `yaml:"present"`
	RangeSeparators      []string            `yaml:"range_separators"`
	Labels               map[string][]string `yaml:"labels"`
	AchievementMarkers   []string            `yaml:"achievement_markers"`
	Consent              []string            `yaml:"consent"`
	Availability         Availability        `yaml:"availability"`
	Licenses             []string            `yaml:"licenses"`
	Skills               []SkillGroup        `yaml:"skills"`

	c compiled
	// guards skillMatcher, whose Match keeps per-call state inside the automaton
	matchMu sync.Mutex
}

type sectionTerms struct {
	kind  constants.SectionKind
	terms []string
}

type labelTerm struct {
	key   string
	term  string
	multi bool
}

type compiled struct {
	sections     []sectionTerms
	levels       *TermMatcher
	languages    *TermMatcher
	written      *TermMatcher
	spoken       *TermMatcher
	certificates *TermMatcher
	achievements *TermMatcher
	contracts    *TermMatcher
	travel       *TermMatcher
	relocation   *TermMatcher
	licenses     *TermMatcher
	consent      []string
	labels       []labelTerm
	months       map[string]int
	present      []string
	separators   []string

	skillExact   map[string]constants.SkillCategory
	skillTerms   []string
	skillCats    []constants.SkillCategory
	skillMatcher *ahocorasick.Matcher
}

// Default returns the embedded vocabulary.
func Default() (*Vocabulary, error) {
	return Parse(defaultYAML)
}

// MustDefault is Default for package-level wiring and tests.
func MustDefault() *Vocabulary {
	v, err := Default()
	if err != nil {
		panic(err)
	}
	return v
}

// Load returns the embedded vocabulary extended with the entries of the YAML file at path.
// Entries with a known key (section kind, level label, language name, skill category) gain
// the file's terms; unknown keys are appended after the defaults.
func Load(path string) (*Vocabulary, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	base, err := decode(defaultYAML)
	if err != nil {
		return nil, err
	}
	extra, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	base.merge(extra)
	if err := base.compile(); err != nil {
		return nil, err
	}
	return base, nil
}

// Parse decodes and compiles a standalone vocabulary document.
func Parse(data []byte) (*Vocabulary, error) {
	v, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := v.compile(); err != nil {
		return nil, err
	}
	return v, nil
}

func decode(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	return &v, nil
}

func (v *Vocabulary) merge(o *Vocabulary) {
	for _, s := range o.Sections {
		i := indexOf(len(v.Sections), func(i int) bool { return v.Sections[i].Kind == s.Kind })
		if i < 0 {
			v.Sections = append(v.Sections, s)
		} else {
			v.Sections[i].Terms = append(v.Sections[i].Terms, s.Terms...)
		}
	}
	v.Levels = mergeLabeled(v.Levels, o.Levels)
	for _, l := range o.Languages {
		i := indexOf(len(v.Languages), func(i int) bool { return strings.EqualFold(v.Languages[i].Name, l.Name) })
		if i < 0 {
			v.Languages = append(v.Languages, l)
		} else {
			v.Languages[i].Terms = append(v.Languages[i].Terms, l.Terms...)
		}
	}
	for _, g := range o.Skills {
		i := indexOf(len(v.Skills), func(i int) bool { return v.Skills[i].Category == g.Category })
		if i < 0 {
			v.Skills = append(v.Skills, g)
		} else {
			v.Skills[i].Terms = append(v.Skills[i].Terms, g.Terms...)
		}
	}
	if v.Months == nil {
		v.Months = map[int][]string{}
	}
	for m, terms := range o.Months {
		v.Months[m] = append(v.Months[m], terms...)
	}
	if v.Labels == nil {
		v.Labels = map[string][]string{}
	}
	for k, terms := range o.Labels {
		v.Labels[k] = append(v.Labels[k], terms...)
	}
	v.LanguageMarkers.Written = append(v.LanguageMarkers.Written, o.LanguageMarkers.Written...)
	v.LanguageMarkers.Spoken = append(v.LanguageMarkers.Spoken, o.LanguageMarkers.Spoken...)
	v.LanguageCertificates = append(v.LanguageCertificates, o.LanguageCertificates...)
	v.Present = append(v.Present, o.Present...)
	v.RangeSeparators = append(v.RangeSeparators, o.RangeSeparators...)
	v.AchievementMarkers = append(v.AchievementMarkers, o.AchievementMarkers...)
	v.Consent = append(v.Consent, o.Consent...)
	v.Licenses = append(v.Licenses, o.Licenses...)
	v.Availability.Travel = append(v.Availability.Travel, o.Availability.Travel...)
	v.Availability.Relocation = append(v.Availability.Relocation, o.Availability.Relocation...)
	v.Availability.ContractTypes = mergeLabeled(v.Availability.ContractTypes, o.Availability.ContractTypes)
}

func mergeLabeled(dst, src []Labeled) []Labeled {
	for _, l := range src {
		i := indexOf(len(dst), func(i int) bool { return strings.EqualFold(dst[i].Label, l.Label) })
		if i < 0 {
			dst = append(dst, l)
		} else {
			dst[i].Terms = append(dst[i].Terms, l.Terms...)
		}
	}
	return dst
}

func indexOf(n int, pred func(int) bool) int {
	for i := 0; i < n; i++ {
		if pred(i) {
			return i
		}
	}
	return -1
}

func (v *Vocabulary) compile() error {
	c := compiled{}

	for _, s := range v.Sections {
		if !constants.IsKnownSection(s.Kind) {
			return fmt.Errorf("vocabulary: unknown section kind %q", s.Kind)
		}
		c.sections = append(c.sections, sectionTerms{kind: s.Kind, terms: foldAll(s.Terms)})
	}

	c.levels = newTermMatcher(v.Levels)
	langs := make([]Labeled, len(v.Languages))
	for i, l := range v.Languages {
		langs[i] = Labeled{Label: l.Name, Terms: append([]string{l.Name}, l.Terms...)}
	}
	c.languages = newTermMatcher(langs)
	c.written = newTermMatcher([]Labeled{{Label: "written", Terms: v.LanguageMarkers.Written}})
	c.spoken = newTermMatcher([]Labeled{{Label: "spoken", Terms: v.LanguageMarkers.Spoken}})
	certs := make([]Labeled, len(v.LanguageCertificates))
	for i, t := range v.LanguageCertificates {
		certs[i] = Labeled{Label: strings.ToUpper(t), Terms: []string{t}}
	}
	c.certificates = newTermMatcher(certs)
	c.achievements = newTermMatcher([]Labeled{{Label: "achievement", Terms: v.AchievementMarkers}})
	c.contracts = newTermMatcher(v.Availability.ContractTypes)
	c.travel = newTermMatcher([]Labeled{{Label: "travel", Terms: v.Availability.Travel}})
	c.relocation = newTermMatcher([]Labeled{{Label: "relocation", Terms: v.Availability.Relocation}})
	c.licenses = newTermMatcher([]Labeled{{Label: "license", Terms: v.Licenses}})
	c.consent = foldAll(v.Consent)

	keys := make([]string, 0, len(v.Labels))
	for k := range v.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, t := range foldAll(v.Labels[k]) {
			c.labels = append(c.labels, labelTerm{key: k, term: t, multi: strings.Contains(t, " ")})
		}
	}
	// longest label first; ties keep key order
	sort.SliceStable(c.labels, func(i, j int) bool { return len(c.labels[i].term) > len(c.labels[j].term) })

	c.months = map[string]int{}
	for m, terms := range v.Months {
		if m < 1 || m > 12 {
			return fmt.Errorf("vocabulary: month %d out of range", m)
		}
		for _, t := range foldAll(terms) {
			c.months[t] = m
		}
	}
	c.present = foldAll(v.Present)
	c.separators = foldAll(v.RangeSeparators)

	c.skillExact = map[string]constants.SkillCategory{}
	for _, g := range v.Skills {
		cat, ok := constants.CanonicalizeSkillCategory(g.Category)
		if !ok {
			return fmt.Errorf("vocabulary: unknown skill category %q", g.Category)
		}
		for _, t := range foldAll(g.Terms) {
			if _, dup := c.skillExact[t]; dup {
				continue
			}
			c.skillExact[t] = cat
			// one- and two-letter names only ever match a whole token
			if len(t) >= 3 {
				c.skillTerms = append(c.skillTerms, t)
				c.skillCats = append(c.skillCats, cat)
			}
		}
	}
	if len(c.skillTerms) > 0 {
		c.skillMatcher = ahocorasick.NewStringMatcher(c.skillTerms)
	}

	v.c = c
	return nil
}

func foldAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := map[string]bool{}
	for _, t := range terms {
		f := strings.Join(strings.Fields(Fold(t)), " ")
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// Accessors used by the parser and normalizer.

func (v *Vocabulary) LevelMatcher() *TermMatcher        { return v.c.levels }
func (v *Vocabulary) LanguageMatcher() *TermMatcher     { return v.c.languages }
func (v *Vocabulary) WrittenMatcher() *TermMatcher      { return v.c.written }
func (v *Vocabulary) SpokenMatcher() *TermMatcher       { return v.c.spoken }
func (v *Vocabulary) CertificateMatcher() *TermMatcher  { return v.c.certificates }
func (v *Vocabulary) AchievementMatcher() *TermMatcher  { return v.c.achievements }
func (v *Vocabulary) ContractTypeMatcher() *TermMatcher { return v.c.contracts }
func (v *Vocabulary) TravelMatcher() *TermMatcher       { return v.c.travel }
func (v *Vocabulary) RelocationMatcher() *TermMatcher   { return v.c.relocation }
func (v *Vocabulary) LicenseMatcher() *TermMatcher      { return v.c.licenses }

// MonthNames maps folded month names and abbreviations to 1..12.
func (v *Vocabulary) MonthNames() map[string]int { return v.c.months }

// PresentTerms lists folded words meaning "until now".
func (v *Vocabulary) PresentTerms() []string { return v.c.present }

// Separators lists folded date-range separators.
func (v *Vocabulary) Separators() []string { return v.c.separators }

// IsConsent reports whether a line is a data-processing consent statement.
func (v *Vocabulary) IsConsent(line string) bool {
	f := Fold(line)
	for _, t := range v.c.consent {
		if strings.Contains(f, t) {
			return true
		}
	}
	return false
}

// MatchHeading scores line against the section vocabulary: 3 for an exact match, 2 when the
// line starts with a term, 1 when a term appears as a word. Equal scores go to the
// earlier-declared section.
func (v *Vocabulary) MatchHeading(line string) (constants.SectionKind, int) {
	f := headingKey(line)
	if f == "" {
		return "", 0
	}
	var best constants.SectionKind
	bestConf := 0
	for _, s := range v.c.sections {
		conf := 0
		for _, t := range s.terms {
			switch {
			case f == t:
				conf = 3
			case conf < 2 && strings.HasPrefix(f, t+" "):
				conf = 2
			case conf < 1 && ContainsWord(f, t):
				conf = 1
			}
			if conf == 3 {
				break
			}
		}
		if conf > bestConf {
			best, bestConf = s.kind, conf
		}
	}
	return best, bestConf
}

func headingKey(line string) string {
	f := Fold(line)
	f = strings.TrimLeft(f, " \t•●▪►*-–—·0123456789.)")
	f = strings.TrimRight(f, " \t:;.-–—")
	f = strings.ReplaceAll(f, "&", "and")
	f = strings.ReplaceAll(f, "/", " ")
	return strings.Join(strings.Fields(f), " ")
}

// Label splits "Label: value" lines. The returned key is a labels entry name (city,
// birth_date, phone, ...). Single-word labels need a separator; multi-word labels may be
// followed by the value directly ("nato il 01/02/1990").
func (v *Vocabulary) Label(line string) (key, value string, ok bool) {
	trimmed := strings.TrimSpace(strings.TrimLeft(line, " \t•●▪►*-–—·"))
	f := Fold(trimmed)
	for _, lt := range v.c.labels {
		if !strings.HasPrefix(f, lt.term) || !boundaryAfter(f, len(lt.term)) {
			continue
		}
		rest := strings.TrimLeft(f[len(lt.term):], " \t")
		sep := strings.IndexAny(rest, ":-–") == 0
		if !sep && !lt.multi {
			continue
		}
		start := len(f) - len(rest)
		if sep {
			_, size := utf8.DecodeRuneInString(rest)
			start += size
		}
		val := strings.TrimSpace(Original(trimmed, f, start, len(f)))
		if val == "" {
			continue
		}
		return lt.key, val, true
	}
	return "", "", false
}

// SkillCategory places a skill token in a category. Whole-token matches win; otherwise the
// longest vocabulary term found inside the token decides, then declaration order.
func (v *Vocabulary) SkillCategory(token string) constants.SkillCategory {
	f := strings.Join(strings.Fields(Fold(token)), " ")
	if f == "" {
		return constants.OtherSkills
	}
	if cat, ok := v.c.skillExact[f]; ok {
		return cat
	}
	if v.c.skillMatcher == nil {
		return constants.OtherSkills
	}
	v.matchMu.Lock()
	hits := v.c.skillMatcher.Match([]byte(f))
	v.matchMu.Unlock()

	best := -1
	for _, idx := range hits {
		if !ContainsWord(f, v.c.skillTerms[idx]) {
			continue
		}
		if best < 0 || len(v.c.skillTerms[idx]) > len(v.c.skillTerms[best]) ||
			(len(v.c.skillTerms[idx]) == len(v.c.skillTerms[best]) && idx < best) {
			best = idx
		}
	}
	if best < 0 {
		return constants.OtherSkills
	}
	return v.c.skillCats[best]
}
