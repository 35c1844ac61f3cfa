// Package parse segments extracted résumé text into section fragments and pulls loosely
// typed fields out of each one. It never fails: anything it cannot read is left out.
package parse

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/joseph-ayodele/cv-parser/constants"
	"github.com/joseph-ayodele/cv-parser/internal/dates"
	"github.com/joseph-ayodele/cv-parser/internal/extract"
	"github.com/joseph-ayodele/cv-parser/internal/vocab"
)

// Entry keys. Personal and contact keys share their names with the vocabulary labels.
const (
	KeyFirstName     = "first_name"
	KeyLastName      = "last_name"
	KeyBirthDate     = "birth_date"
	KeyBirthPlace    = "birth_place"
	KeyNationality   = "nationality"
	KeySex           = "sex"
	KeyMaritalStatus = "marital_status"

	KeyStreet     = "address"
	KeyCity       = "city"
	KeyProvince   = "province"
	KeyCountry    = "country"
	KeyPostalCode = "postal_code"
	KeyLocation   = "location"
	KeyPhone      = "phone"
	KeyMobile     = "mobile"
	KeyEmail      = "email"
	KeyLinkedIn   = "linkedin"
	KeyGitHub     = "github"
	KeyWebsite    = "website"

	KeyTitle        = "title"
	KeyOrganization = "organization"
	KeyStart        = "start"
	KeyEnd          = "end"
	KeyDescription  = "description"
	KeyItems        = "items"
	KeyResults      = "results"
	KeyGrade        = "grade"
	KeyThesis       = "thesis"
	KeyCredential   = "credential"
	KeyIssuer       = "issuer"
	KeyLink         = "link"
	KeyTechnologies = "technologies"
	KeyRole         = "role"

	KeyLanguage       = "language"
	KeyWritten        = "written"
	KeySpoken         = "spoken"
	KeyCertifications = "certifications"

	KeyCategory = "category"

	KeyAuthors = "authors"
	KeyVenue   = "venue"
	KeyDate    = "date"

	KeyTravel        = "travel"
	KeyRelocation    = "relocation"
	KeyContractTypes = "contract_types"

	KeyStatement = "statement"
)

// Span is a byte range of ExtractionResult.Text.
type Span struct {
	Start int
	End   int
}

// Entry is one loosely typed record of a fragment. Values are string or []string.
type Entry map[string]any

func (e Entry) String(key string) string {
	s, _ := e[key].(string)
	return s
}

func (e Entry) List(key string) []string {
	l, _ := e[key].([]string)
	return l
}

// set stores value under key unless the key already has one.
func (e Entry) set(key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if e.String(key) == "" {
		e[key] = value
	}
}

func (e Entry) add(key string, values ...string) {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			e[key] = append(e.List(key), v)
		}
	}
}

// Fragment is the text of one résumé section and what could be read from it.
type Fragment struct {
	Kind    constants.SectionKind
	Heading string
	Span    Span
	Entries []Entry
}

// Parser is built once per vocabulary and is safe for concurrent use.
type Parser struct {
	vocab  *vocab.Vocabulary
	dates  *dates.Parser
	logger *slog.Logger
}

func NewParser(v *vocab.Vocabulary, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if v == nil {
		v = vocab.MustDefault()
	}
	return &Parser{vocab: v, dates: dates.NewParser(v), logger: logger}
}

// Parse returns the fragments of res in document order. The header fragment is always
// first; sections that were not found are simply absent.
func (p *Parser) Parse(res extract.ExtractionResult) (out []Fragment) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("parse.panic", "panic", r, "fragments", len(out))
		}
	}()

	lines := splitLines(res.Text)
	sections := p.segment(lines)

	out = make([]Fragment, 0, len(sections)+2)
	for i, sec := range sections {
		f := Fragment{Kind: sec.kind, Heading: sec.heading, Span: sec.span}
		if sec.kind == constants.SectionHeader {
			if i > 0 {
				// header lines resumed after an inline heading; identity reads them all
				continue
			}
			if e := p.identity(sections, lines); len(e) > 0 {
				f.Entries = []Entry{e}
			}
		} else {
			f.Entries = p.entries(sec)
		}
		out = append(out, f)
	}
	out = append(out, p.supplements(sections)...)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind == constants.SectionHeader {
			return out[j].Kind != constants.SectionHeader
		}
		if out[j].Kind == constants.SectionHeader {
			return false
		}
		return out[i].Span.Start < out[j].Span.Start
	})

	p.logger.Debug("parse.done", "fragments", len(out), "lines", len(lines))
	return out
}

func (p *Parser) entries(sec section) []Entry {
	switch sec.kind {
	case constants.SectionPersonal:
		if e := p.personal(sec.body); len(e) > 0 {
			return []Entry{e}
		}
		return nil
	case constants.SectionExperience, constants.SectionEducation,
		constants.SectionCertifications, constants.SectionProjects:
		return p.dated(sec.kind, sec.body)
	case constants.SectionLanguages:
		return p.languages(sec.body)
	case constants.SectionSkills:
		return p.skills(sec.body)
	case constants.SectionSoftSkills, constants.SectionInterests:
		return listEntry(sec.body)
	case constants.SectionLicenses:
		return p.licenses(sec.body)
	case constants.SectionPublications:
		return p.publications(sec.body)
	case constants.SectionAvailability:
		return p.availability(sec.body)
	case constants.SectionConsent:
		if s := joinText(sec.body, " "); s != "" {
			return []Entry{{KeyStatement: s}}
		}
		return nil
	default:
		if s := joinText(sec.body, "\n"); s != "" {
			return []Entry{{KeyDescription: s}}
		}
		return nil
	}
}
