package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/cv-parser/internal/common"
	"github.com/joseph-ayodele/cv-parser/internal/schema"
)

func fullRecord() schema.Record {
	r := schema.New()
	r.Identity = schema.Identity{
		FirstName: "Mario", LastName: "Rossi", BirthDate: "12/05/1990", BirthPlace: "Milano",
		Nationality: "italiana", Sex: "M", MaritalStatus: "celibe",
	}
	r.Contacts = schema.Contacts{
		Address: schema.Address{Street: "Via Roma 10", City: "Milano", PostalCode: "20121", Province: "MI", Country: "Italy"},
		Phone:   "+390212345678", Mobile: "+393331234567", Email: "mario@example.it",
		LinkedIn: "https://www.linkedin.com/in/mario", Website: "https://mario.dev", GitHub: "https://github.com/mario",
	}
	r.Education = []schema.Education{{Degree: "Laurea", Institution: "Politecnico di Milano"}}
	r.Experience = []schema.Experience{{Role: "Developer", Company: "ACME"}}
	r.TechnicalSkills = schema.TechnicalSkills{
		ProgrammingLanguages: []string{"Go"}, Frameworks: []string{"Gin"}, Databases: []string{"PostgreSQL"},
		Tools: []string{"Docker"}, Methodologies: []string{"Scrum"}, Other: []string{"Public speaking"},
	}
	r.Languages = []schema.LanguageSkill{{Language: "English", Written: "B2", Spoken: "B2"}}
	r.SoftSkills = []string{"Teamwork"}
	r.Certifications = []schema.Certification{{Name: "AWS SAA"}}
	r.Projects = []schema.Project{{Name: "cv-parser"}}
	r.Publications = []schema.Publication{{Title: "On parsing"}}
	r.Interests = []string{"Chess"}
	r.Licenses = []string{"B"}
	r.Consent = "Autorizzo il trattamento dei dati personali."
	r.Availability = schema.Availability{Travel: "sì", Relocation: "no", ContractTypes: []string{"Full-time"}}
	return r.Filled()
}

func TestLeaves(t *testing.T) {
	assert.Equal(t, 37, Leaves())
}

func TestScore_Bounds(t *testing.T) {
	s := Default()

	assert.Equal(t, Report{}, s.Score(schema.New()))
	assert.Equal(t, Report{}, s.Score(schema.Record{}))
	assert.Equal(t, Report{CorePercentage: 100, GlobalPercentage: 100}, s.Score(fullRecord()))
}

func TestScore_NameAndEmailOnly(t *testing.T) {
	r := schema.New()
	r.Identity.FirstName = "Mario"
	r.Identity.LastName = "Rossi"
	r.Contacts.Email = "not-an-email"

	got := Default().Score(r)
	assert.Equal(t, 38, got.CorePercentage, "3 of 8 core checks")
	assert.Equal(t, 8, got.GlobalPercentage, "3 of 37 leaves")
}

func TestScore_BlankIsAbsent(t *testing.T) {
	r := schema.New()
	r.Identity.FirstName = "   "
	r.Experience = []schema.Experience{}
	assert.Equal(t, Report{}, Default().Score(r))
}

func TestScore_Monotonic(t *testing.T) {
	s := Default()
	steps := []func(*schema.Record){
		func(r *schema.Record) { r.Contacts.Mobile = "+393331234567" },
		func(r *schema.Record) { r.Identity.FirstName = "Anna" },
		func(r *schema.Record) { r.Contacts.Email = "anna@example.org" },
		func(r *schema.Record) { r.Interests = []string{"Chess"} },
		func(r *schema.Record) { r.Experience = []schema.Experience{{Company: "ACME"}} },
		func(r *schema.Record) { r.TechnicalSkills.Tools = []string{"Docker"} },
		func(r *schema.Record) { r.Availability.ContractTypes = []string{"Remote"} },
		func(r *schema.Record) { r.Contacts.Address.Country = "Italy" },
	}

	r := schema.New()
	prev := s.Score(r)
	for i, step := range steps {
		step(&r)
		got := s.Score(r)
		assert.GreaterOrEqual(t, got.GlobalPercentage, prev.GlobalPercentage, "step %d", i)
		assert.GreaterOrEqual(t, got.CorePercentage, prev.CorePercentage, "step %d", i)
		prev = got
	}
	assert.Greater(t, prev.GlobalPercentage, 0)
}

func TestScore_IdempotentAndPure(t *testing.T) {
	s := Default()
	r := fullRecord()
	r.Interests = nil
	before := r

	first := s.Score(r)
	assert.Equal(t, first, s.Score(r))
	assert.Equal(t, before, r)
	assert.Nil(t, r.Interests)
}

func TestNewScorer_CustomCore(t *testing.T) {
	s, err := NewScorer([]string{"anagrafica.nome", " contatti.linkedin | contatti.github ", "pubblicazioni"})
	require.NoError(t, err)

	r := schema.New()
	r.Identity.FirstName = "Anna"
	r.Contacts.GitHub = "https://github.com/anna"
	assert.Equal(t, 67, s.Score(r).CorePercentage)

	_, err = NewScorer([]string{"anagrafica.eta"})
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		n, total, want int
	}{
		{0, 0, 0},
		{0, 8, 0},
		{1, 8, 13},
		{1, 2, 50},
		{1, 3, 33},
		{2, 3, 67},
		{1, 200, 1},
		{1, 201, 0},
		{9, 8, 100},
		{-1, 8, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, percent(tt.n, tt.total), "%d/%d", tt.n, tt.total)
	}
}

func TestMissing(t *testing.T) {
	r := schema.New()
	r.Identity.FirstName = "Mario"
	r.Contacts.Mobile = "+393331234567"

	assert.Equal(t, []string{
		"anagrafica.cognome",
		"contatti.indirizzo.citta",
		"contatti.indirizzo.paese",
		"esperienze_lavorative",
		"istruzione",
		"competenze_tecniche",
	}, Default().Missing(r))
	assert.Empty(t, Default().Missing(fullRecord()))
}
