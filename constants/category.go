package constants

import (
	"strings"
)

// SkillCategory is a bucket of competenze_tecniche.
type SkillCategory string

const (
	ProgrammingLanguages SkillCategory = "programming_languages"
	Frameworks           SkillCategory = "frameworks"
	Databases            SkillCategory = "databases"
	Tools                SkillCategory = "tools"
	Methodologies        SkillCategory = "methodologies"
	OtherSkills          SkillCategory = "other"
)

var allSkillCategories = []SkillCategory{
	ProgrammingLanguages,
	Frameworks,
	Databases,
	Tools,
	Methodologies,
	OtherSkills,
}

// SkillCategories returns the categories in their stable declaration order.
func SkillCategories() []SkillCategory {
	out := make([]SkillCategory, len(allSkillCategories))
	copy(out, allSkillCategories)
	return out
}

// CanonicalizeSkillCategory maps a vocabulary or label spelling to a category.
func CanonicalizeSkillCategory(input string) (SkillCategory, bool) {
	if input == "" {
		return OtherSkills, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.TrimSuffix(normalized, ":")

	// synonyms map
	synonyms := map[string]SkillCategory{
		"languages":                   ProgrammingLanguages,
		"programming":                 ProgrammingLanguages,
		"programming languages":       ProgrammingLanguages,
		"linguaggi":                   ProgrammingLanguages,
		"linguaggi di programmazione": ProgrammingLanguages,
		"linguaggi_programmazione":    ProgrammingLanguages,
		"framework":                   Frameworks,
		"libraries":                   Frameworks,
		"librerie":                    Frameworks,
		"database":                    Databases,
		"db":                          Databases,
		"data stores":                 Databases,
		"tool":                        Tools,
		"strumenti":                   Tools,
		"software":                    Tools,
		"devops":                      Tools,
		"cloud":                       Tools,
		"methodology":                 Methodologies,
		"metodologie":                 Methodologies,
		"practices":                   Methodologies,
		"altre_competenze":            OtherSkills,
		"altro":                       OtherSkills,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allSkillCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}

	return OtherSkills, false
}
