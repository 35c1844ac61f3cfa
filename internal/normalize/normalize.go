// Package normalize maps parser fragments onto the canonical record: fields are re-keyed,
// cleaned, capped and de-duplicated. Normalization is total; any fragment sequence,
// including none, yields a record with every field present.
package normalize

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/joseph-ayodele/cv-parser/constants"
	"github.com/joseph-ayodele/cv-parser/internal/dates"
	"github.com/joseph-ayodele/cv-parser/internal/parse"
	"github.com/joseph-ayodele/cv-parser/internal/schema"
	"github.com/joseph-ayodele/cv-parser/internal/vocab"
)

// List caps.
const (
	maxItems     = 30
	maxSkills    = 50
	maxOther     = 150
	maxLangCerts = 20
	maxTech      = 40
	maxAuthors   = 20
	maxSoft      = 50
	maxInterests = 30
	maxLicenses  = 10
	maxContracts = 10
)

type Normalizer struct {
	vocab     *vocab.Vocabulary
	dates     *dates.Parser
	countries *countryIndex
	region    string
	logger    *slog.Logger
}

type Option func(*Normalizer)

// WithDefaultRegion sets the phone region (ISO 3166 alpha-2) used when neither the number
// nor the document reveals one.
func WithDefaultRegion(region string) Option {
	return func(n *Normalizer) {
		n.region = strings.ToUpper(strings.TrimSpace(region))
	}
}

func NewNormalizer(v *vocab.Vocabulary, logger *slog.Logger, opts ...Option) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if v == nil {
		v = vocab.MustDefault()
	}
	n := &Normalizer{
		vocab:     v,
		dates:     dates.NewParser(v),
		countries: countryIdx(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type skillGroup struct {
	hint  string
	items []string
	// items from experience or project technologies only count when the vocabulary
	// knows them
	known bool
}

// Normalize builds the record from fragments in the order given. Identity fields take
// the first value found; list sections accumulate.
func (n *Normalizer) Normalize(frags []parse.Fragment) (rec schema.Record) {
	rec = schema.New()
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("normalize.panic", "panic", r)
			rec = rec.Filled()
		}
	}()

	id := parse.Entry{}
	var skills []skillGroup
	for _, f := range frags {
		for _, e := range f.Entries {
			e = rekey(f.Kind, e)
			switch f.Kind {
			case constants.SectionHeader, constants.SectionPersonal:
				mergeInto(id, e)
			case constants.SectionExperience:
				rec.Experience = append(rec.Experience, n.experience(e))
				skills = append(skills, skillGroup{items: e.List(parse.KeyTechnologies), known: true})
			case constants.SectionEducation:
				rec.Education = append(rec.Education, n.education(e))
			case constants.SectionCertifications:
				rec.Certifications = append(rec.Certifications, n.certification(e))
			case constants.SectionProjects:
				rec.Projects = append(rec.Projects, n.project(e))
				skills = append(skills, skillGroup{items: e.List(parse.KeyTechnologies), known: true})
			case constants.SectionPublications:
				rec.Publications = append(rec.Publications, n.publication(e))
			case constants.SectionLanguages:
				rec.Languages = append(rec.Languages, n.language(e))
			case constants.SectionSkills:
				skills = append(skills, skillGroup{hint: e.String(parse.KeyCategory), items: e.List(parse.KeyItems)})
			case constants.SectionSoftSkills:
				rec.SoftSkills = append(rec.SoftSkills, e.List(parse.KeyItems)...)
			case constants.SectionInterests:
				rec.Interests = append(rec.Interests, e.List(parse.KeyItems)...)
			case constants.SectionLicenses:
				rec.Licenses = append(rec.Licenses, e.List(parse.KeyItems)...)
			case constants.SectionAvailability:
				n.availability(&rec.Availability, e)
			case constants.SectionConsent:
				if rec.Consent == "" {
					rec.Consent = block(e.String(parse.KeyStatement))
				}
			}
		}
	}

	n.identity(&rec, id)
	n.skills(&rec.TechnicalSkills, skills)

	rec.Experience = n.dedupeExperience(nonBlank(rec.Experience))
	rec.Education = n.dedupeEducation(nonBlank(rec.Education))
	rec.Certifications = n.dedupeCertifications(nonBlank(rec.Certifications))
	rec.Projects = collapse(nonBlank(rec.Projects), func(a, b schema.Project) bool { return false }, func(*schema.Project, schema.Project) {})
	rec.Publications = collapse(nonBlank(rec.Publications), func(a, b schema.Publication) bool { return false }, func(*schema.Publication, schema.Publication) {})
	rec.Languages = mergeLanguages(rec.Languages)
	rec.SoftSkills = list(rec.SoftSkills, maxShort, maxSoft)
	rec.Interests = list(rec.Interests, maxInterest, maxInterests)
	rec.Licenses = list(rec.Licenses, maxLicense, maxLicenses)
	rec.Availability.ContractTypes = list(rec.Availability.ContractTypes, maxContract, maxContracts)

	n.logger.Debug("normalize.done",
		"fragments", len(frags),
		"experience", len(rec.Experience),
		"education", len(rec.Education),
		"languages", len(rec.Languages),
	)
	return rec.Filled()
}

// rekey renames synonymous entry keys onto the ones each section reads. An existing value
// under the target key wins.
func rekey(kind constants.SectionKind, e parse.Entry) parse.Entry {
	out := make(parse.Entry, len(e))
	for k, v := range e {
		out[k] = v
	}
	renamed := func(from, to string) {
		v, ok := out[from]
		if !ok {
			return
		}
		if s, _ := out[to].(string); s == "" {
			out[to] = v
			delete(out, from)
		}
	}
	switch kind {
	case constants.SectionExperience:
		renamed(parse.KeyRole, parse.KeyTitle)
	case constants.SectionCertifications:
		renamed(parse.KeyOrganization, parse.KeyIssuer)
		renamed(parse.KeyDate, parse.KeyStart)
	case constants.SectionPublications:
		renamed(parse.KeyOrganization, parse.KeyVenue)
		renamed(parse.KeyStart, parse.KeyDate)
	}
	return out
}

func mergeInto(dst, src parse.Entry) {
	for k, v := range src {
		switch t := v.(type) {
		case string:
			if dst.String(k) == "" && strings.TrimSpace(t) != "" {
				dst[k] = t
			}
		case []string:
			if len(dst.List(k)) == 0 && len(t) > 0 {
				dst[k] = t
			}
		}
	}
}

func (n *Normalizer) identity(r *schema.Record, id parse.Entry) {
	r.Identity = schema.Identity{
		FirstName:     personName(id.String(parse.KeyFirstName), maxName),
		LastName:      personName(id.String(parse.KeyLastName), maxSurname),
		BirthDate:     n.birthDate(id.String(parse.KeyBirthDate)),
		BirthPlace:    short(id.String(parse.KeyBirthPlace), 120),
		Nationality:   short(id.String(parse.KeyNationality), 80),
		Sex:           sex(id.String(parse.KeySex)),
		MaritalStatus: short(id.String(parse.KeyMaritalStatus), 40),
	}

	c := &r.Contacts
	c.Email = email(id.String(parse.KeyEmail))
	c.LinkedIn = profile(id.String(parse.KeyLinkedIn), "www.linkedin.com")
	c.GitHub = profile(id.String(parse.KeyGitHub), "github.com")
	c.Website = link(id.String(parse.KeyWebsite))

	a := &c.Address
	a.Street = short(id.String(parse.KeyStreet), maxShort)
	a.City = short(id.String(parse.KeyCity), 120)
	a.PostalCode = short(id.String(parse.KeyPostalCode), 12)
	a.Province = short(id.String(parse.KeyProvince), 80)

	city, place := n.splitPlace(id.String(parse.KeyLocation))
	fill(&a.City, city)

	code, name := n.country(id, place, c)
	a.Country = name

	region := code
	if region == "" {
		region = n.region
	}
	c.Phone = phone(id.String(parse.KeyPhone), region)
	c.Mobile = phone(id.String(parse.KeyMobile), region)
	if c.Mobile == c.Phone {
		c.Mobile = ""
	}
}

// country resolves the residence country: explicit label, then a "City, Country"
// location, then the region of an international phone number, then the e-mail or web
// site TLD, then a country name written in the address.
func (n *Normalizer) country(id parse.Entry, place string, c *schema.Contacts) (code, name string) {
	label := short(id.String(parse.KeyCountry), 120)
	if label != "" {
		if code, ok := n.countries.lookup(label); ok {
			return code, n.countries.name(code)
		}
	}
	named := func(code string) (string, string) {
		if label != "" {
			return code, label
		}
		return code, n.countries.name(code)
	}
	if place != "" {
		if code, ok := n.countries.lookup(place); ok {
			return named(code)
		}
	}
	for _, p := range []string{id.String(parse.KeyPhone), id.String(parse.KeyMobile)} {
		if code := phoneRegion(p); code != "" && n.countries.name(code) != "" {
			return named(code)
		}
	}
	for _, d := range []string{c.Email, c.Website} {
		if code, ok := n.countries.fromDomain(d); ok {
			return named(code)
		}
	}
	for _, s := range []string{id.String(parse.KeyStreet), id.String(parse.KeyLocation)} {
		if code, ok := n.countries.find(s); ok {
			return named(code)
		}
	}
	return "", label
}

// splitPlace reads "City", "City, Country" or "Country".
func (n *Normalizer) splitPlace(s string) (city, country string) {
	s = short(s, maxShort)
	if s == "" {
		return "", ""
	}
	parts := strings.Split(s, ",")
	if len(parts) == 1 {
		if _, ok := n.countries.lookup(s); ok {
			return "", s
		}
		return s, ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[len(parts)-1])
}

// place turns an entry location into city and English country name.
func (n *Normalizer) place(s string) (city, country string) {
	city, country = n.splitPlace(s)
	if country != "" {
		if code, ok := n.countries.lookup(country); ok {
			country = n.countries.name(code)
		} else if city == "" {
			city, country = country, ""
		}
	}
	return short(city, 120), short(country, 120)
}

func (n *Normalizer) date(s string) string {
	s = short(s, maxShort)
	if s == "" {
		return ""
	}
	if d, ok := n.dates.Parse(s); ok {
		return d.String()
	}
	if r, ok := n.dates.FindDate(s); ok {
		return r.Start.String()
	}
	return shorten(s, maxDate)
}

// birthDate uses the DD/MM/YYYY convention of the record.
func (n *Normalizer) birthDate(s string) string {
	s = short(s, maxShort)
	if s == "" {
		return ""
	}
	if d, ok := n.dates.Parse(s); ok && !d.Present {
		return d.DMY()
	}
	if r, ok := n.dates.FindDate(s); ok {
		return r.Start.DMY()
	}
	return shorten(s, maxDate)
}

func sex(s string) string {
	s = short(s, 20)
	switch f := vocab.Fold(s); {
	case f == "":
		return ""
	case f == "m" || f == "uomo" || strings.HasPrefix(f, "male") || strings.HasPrefix(f, "masc") ||
		strings.HasPrefix(f, "mann") || strings.HasPrefix(f, "homme") || strings.HasPrefix(f, "hombre"):
		return "M"
	case f == "f" || f == "w" || f == "donna" || strings.HasPrefix(f, "fem") || strings.HasPrefix(f, "weib") ||
		strings.HasPrefix(f, "mujer"):
		return "F"
	}
	return s
}

func (n *Normalizer) experience(e parse.Entry) schema.Experience {
	city, country := n.place(e.String(parse.KeyLocation))
	return schema.Experience{
		Role:             short(e.String(parse.KeyTitle), maxTitle),
		Company:          short(e.String(parse.KeyOrganization), maxTitle),
		City:             city,
		Country:          country,
		StartDate:        n.date(e.String(parse.KeyStart)),
		EndDate:          n.date(e.String(parse.KeyEnd)),
		Description:      block(e.String(parse.KeyDescription)),
		Responsibilities: list(e.List(parse.KeyItems), maxItem, maxItems),
		Achievements:     list(e.List(parse.KeyResults), maxItem, maxItems),
	}
}

func (n *Normalizer) education(e parse.Entry) schema.Education {
	city, country := n.place(e.String(parse.KeyLocation))
	return schema.Education{
		Degree:      short(e.String(parse.KeyTitle), maxTitle),
		Institution: short(e.String(parse.KeyOrganization), maxTitle),
		City:        city,
		Country:     country,
		StartDate:   n.date(e.String(parse.KeyStart)),
		EndDate:     n.date(e.String(parse.KeyEnd)),
		Grade:       short(e.String(parse.KeyGrade), 50),
		Description: block(details(e)),
		Thesis:      short(e.String(parse.KeyThesis), 280),
	}
}

func (n *Normalizer) certification(e parse.Entry) schema.Certification {
	c := schema.Certification{
		Name:       short(e.String(parse.KeyTitle), maxTitle),
		Issuer:     short(e.String(parse.KeyIssuer), maxTitle),
		IssuedOn:   n.date(e.String(parse.KeyStart)),
		Credential: short(e.String(parse.KeyCredential), 80),
	}
	if end := n.date(e.String(parse.KeyEnd)); end != constants.Present {
		c.ExpiresOn = end
	}
	return c
}

func (n *Normalizer) project(e parse.Entry) schema.Project {
	return schema.Project{
		Name:         short(e.String(parse.KeyTitle), maxTitle),
		Description:  block(details(e)),
		Role:         short(e.String(parse.KeyRole), maxShort),
		Technologies: list(e.List(parse.KeyTechnologies), maxSkill, maxTech),
		Link:         link(e.String(parse.KeyLink)),
	}
}

func (n *Normalizer) publication(e parse.Entry) schema.Publication {
	return schema.Publication{
		Title:   short(e.String(parse.KeyTitle), 240),
		Authors: list(e.List(parse.KeyAuthors), 120, maxAuthors),
		Date:    n.date(e.String(parse.KeyDate)),
		Venue:   short(e.String(parse.KeyVenue), maxTitle),
		Link:    link(e.String(parse.KeyLink)),
	}
}

func (n *Normalizer) language(e parse.Entry) schema.LanguageSkill {
	return schema.LanguageSkill{
		Language:       short(e.String(parse.KeyLanguage), 120),
		Written:        short(e.String(parse.KeyWritten), maxLevel),
		Spoken:         short(e.String(parse.KeySpoken), maxLevel),
		Certifications: list(e.List(parse.KeyCertifications), maxShort, maxLangCerts),
	}
}

func (n *Normalizer) availability(dst *schema.Availability, e parse.Entry) {
	fill(&dst.Travel, short(e.String(parse.KeyTravel), 80))
	fill(&dst.Relocation, short(e.String(parse.KeyRelocation), 80))
	dst.ContractTypes = append(dst.ContractTypes, e.List(parse.KeyContractTypes)...)
}

// skills buckets tokens by vocabulary category. Unknown tokens take the category of
// their "Label:" hint, or land in other.
func (n *Normalizer) skills(dst *schema.TechnicalSkills, groups []skillGroup) {
	buckets := map[constants.SkillCategory][]string{}
	for _, g := range groups {
		hint, hinted := constants.CanonicalizeSkillCategory(g.hint)
		for _, it := range g.items {
			it = short(it, maxSkill)
			if it == "" {
				continue
			}
			cat := n.vocab.SkillCategory(it)
			if cat == constants.OtherSkills {
				if g.known {
					continue
				}
				if hinted {
					cat = hint
				}
			}
			buckets[cat] = append(buckets[cat], it)
		}
	}
	dst.ProgrammingLanguages = list(append(dst.ProgrammingLanguages, buckets[constants.ProgrammingLanguages]...), maxSkill, maxSkills)
	dst.Frameworks = list(append(dst.Frameworks, buckets[constants.Frameworks]...), maxSkill, maxSkills)
	dst.Databases = list(append(dst.Databases, buckets[constants.Databases]...), maxSkill, maxSkills)
	dst.Tools = list(append(dst.Tools, buckets[constants.Tools]...), maxSkill, maxSkills)
	dst.Methodologies = list(append(dst.Methodologies, buckets[constants.Methodologies]...), maxSkill, maxSkills)
	dst.Other = list(append(dst.Other, buckets[constants.OtherSkills]...), maxShort, maxOther)
}

// mergeLanguages folds entries naming the same language together, filling levels and
// joining certificates.
func mergeLanguages(in []schema.LanguageSkill) []schema.LanguageSkill {
	out := make([]schema.LanguageSkill, 0, len(in))
	index := map[string]int{}
	for _, l := range in {
		if l.Language == "" {
			continue
		}
		k := vocab.Fold(l.Language)
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, l)
			continue
		}
		fill(&out[i].Written, l.Written)
		fill(&out[i].Spoken, l.Spoken)
		out[i].Certifications = union(out[i].Certifications, l.Certifications, maxShort, maxLangCerts)
	}
	return out
}

// details joins an entry's description with its bullet items and results, for record
// types that carry a single description field.
func details(e parse.Entry) string {
	parts := []string{e.String(parse.KeyDescription)}
	parts = append(parts, e.List(parse.KeyItems)...)
	parts = append(parts, e.List(parse.KeyResults)...)
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

// nonBlank drops entries in which nothing at all was recognised.
func nonBlank[T any](in []T) []T {
	out := in[:0:0]
	for _, v := range in {
		if !blank(reflect.ValueOf(v)) {
			out = append(out, v)
		}
	}
	return out
}

func blank(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String, reflect.Slice:
		return v.Len() == 0
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if !blank(v.Field(i)) {
				return false
			}
		}
		return true
	}
	return v.IsZero()
}
