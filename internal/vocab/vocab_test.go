package vocab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/cv-parser/constants"
)

func TestFoldKeepsRuneCount(t *testing.T) {
	in := "Città di NASCITA: Forlì – Café’s"
	out := Fold(in)
	assert.Equal(t, "citta di nascita: forli – cafe's", out)
	assert.Equal(t, len([]rune(in)), len([]rune(out)))
}

func TestMatchHeading(t *testing.T) {
	v := MustDefault()

	tests := []struct {
		line string
		kind constants.SectionKind
		conf int
	}{
		{"ESPERIENZE LAVORATIVE", constants.SectionExperience, 3},
		{"Work Experience:", constants.SectionExperience, 3},
		{"Istruzione e formazione", constants.SectionEducation, 3},
		{"Soft Skills", constants.SectionSoftSkills, 3},
		{"Competenze linguistiche", constants.SectionLanguages, 3},
		{"Hobbies & Interests", constants.SectionInterests, 3},
		{"Experience in fintech", constants.SectionExperience, 2},
		{"Mario Rossi", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			kind, conf := v.MatchHeading(tt.line)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.conf, conf)
		})
	}
}

func TestMatchHeadingTieGoesToEarlierSection(t *testing.T) {
	v, err := Parse([]byte(`
sections:
  - {kind: skills, terms: [competenze]}
  - {kind: soft_skills, terms: [competenze]}
`))
	require.NoError(t, err)
	kind, conf := v.MatchHeading("COMPETENZE")
	assert.Equal(t, constants.SectionSkills, kind)
	assert.Equal(t, 3, conf)
}

func TestLabel(t *testing.T) {
	v := MustDefault()

	key, val, ok := v.Label("Data di nascita: 12/03/1990")
	require.True(t, ok)
	assert.Equal(t, "birth_date", key)
	assert.Equal(t, "12/03/1990", val)

	key, val, ok = v.Label("Stato civile - Celibe")
	require.True(t, ok)
	assert.Equal(t, "marital_status", key)
	assert.Equal(t, "Celibe", val)

	key, val, ok = v.Label("Città: Forlì")
	require.True(t, ok)
	assert.Equal(t, "city", key)
	assert.Equal(t, "Forlì", val)

	key, val, ok = v.Label("nato a Roma")
	require.True(t, ok)
	assert.Equal(t, "birth_place", key)
	assert.Equal(t, "Roma", val)

	_, _, ok = v.Label("Capacità di lavorare in team")
	assert.False(t, ok)
}

func TestLevelAndLanguageMatchers(t *testing.T) {
	v := MustDefault()
	f := Fold("Inglese: livello B2, francese madrelingua")

	langs := v.LanguageMatcher().FindAll(f)
	require.Len(t, langs, 2)
	assert.Equal(t, "English", langs[0].Label)
	assert.Equal(t, "French", langs[1].Label)

	assert.Equal(t, []string{"B2", "Native"}, v.LevelMatcher().Labels(f))
}

func TestSkillCategory(t *testing.T) {
	v := MustDefault()

	assert.Equal(t, constants.ProgrammingLanguages, v.SkillCategory("Go"))
	assert.Equal(t, constants.ProgrammingLanguages, v.SkillCategory("C++"))
	assert.Equal(t, constants.Databases, v.SkillCategory("PostgreSQL 15"))
	assert.Equal(t, constants.Databases, v.SkillCategory("SQL Server 2019"))
	assert.Equal(t, constants.Frameworks, v.SkillCategory("Spring Boot 3"))
	assert.Equal(t, constants.Methodologies, v.SkillCategory("Scrum"))
	assert.Equal(t, constants.Tools, v.SkillCategory("docker compose"))
	assert.Equal(t, constants.OtherSkills, v.SkillCategory("Scalability design"))
	assert.Equal(t, constants.OtherSkills, v.SkillCategory("Public speaking"))
}

func TestIsConsent(t *testing.T) {
	v := MustDefault()
	assert.True(t, v.IsConsent("Autorizzo il trattamento dei dati personali ai sensi del D.Lgs. 196/2003"))
	assert.True(t, v.IsConsent("I consent to the processing of my personal data (GDPR)."))
	assert.False(t, v.IsConsent("Data engineer"))
}

func TestLoadMergesOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sections:
  - {kind: experience, terms: [arbetslivserfarenhet]}
languages:
  - {name: Swedish, terms: [svenska]}
  - {name: Esperanto, terms: [esperanto]}
skills:
  - {category: tools, terms: [bazel]}
`), 0o600))

	v, err := Load(path)
	require.NoError(t, err)

	kind, conf := v.MatchHeading("Arbetslivserfarenhet")
	assert.Equal(t, constants.SectionExperience, kind)
	assert.Equal(t, 3, conf)

	assert.Equal(t, []string{"Swedish", "Esperanto"}, v.LanguageMatcher().Labels(Fold("Svenska, Esperanto")))
	assert.Equal(t, constants.Tools, v.SkillCategory("Bazel"))
	// defaults survive
	kind, _ = v.MatchHeading("Education")
	assert.Equal(t, constants.SectionEducation, kind)
}

func TestParseRejectsUnknownKinds(t *testing.T) {
	_, err := Parse([]byte(`sections: [{kind: hobbiez, terms: [x]}]`))
	assert.Error(t, err)

	_, err = Parse([]byte(`skills: [{category: magic, terms: [x]}]`))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
