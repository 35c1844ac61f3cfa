package constants

// SectionKind identifies the résumé section a parsed fragment belongs to.
type SectionKind string

const (
	SectionHeader         SectionKind = "header"
	SectionPersonal       SectionKind = "personal"
	SectionExperience     SectionKind = "experience"
	SectionEducation      SectionKind = "education"
	SectionSkills         SectionKind = "skills"
	SectionLanguages      SectionKind = "languages"
	SectionSoftSkills     SectionKind = "soft_skills"
	SectionCertifications SectionKind = "certifications"
	SectionProjects       SectionKind = "projects"
	SectionPublications   SectionKind = "publications"
	SectionInterests      SectionKind = "interests"
	SectionLicenses       SectionKind = "licenses"
	SectionAvailability   SectionKind = "availability"
	SectionConsent        SectionKind = "consent"
	SectionOther          SectionKind = "other"
)

var knownSections = map[SectionKind]struct{}{
	SectionHeader: {}, SectionPersonal: {}, SectionExperience: {}, SectionEducation: {},
	SectionSkills: {}, SectionLanguages: {}, SectionSoftSkills: {}, SectionCertifications: {},
	SectionProjects: {}, SectionPublications: {}, SectionInterests: {}, SectionLicenses: {},
	SectionAvailability: {}, SectionConsent: {}, SectionOther: {},
}

// IsKnownSection reports whether k is one of the declared section kinds.
func IsKnownSection(k SectionKind) bool {
	_, ok := knownSections[k]
	return ok
}

// IsDated reports whether entries of this section are delimited by dates.
func (k SectionKind) IsDated() bool {
	switch k {
	case SectionExperience, SectionEducation, SectionCertifications, SectionProjects:
		return true
	}
	return false
}
