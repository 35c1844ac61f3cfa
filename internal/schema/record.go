// Package schema defines the canonical résumé record. Field names are the wire format
// consumed by downstream services and must not change.
package schema

import "encoding/json"

// Record is the canonical résumé. Every leaf is a string or a list; nothing is optional.
type Record struct {
	Identity        Identity        `json:"anagrafica"`
	Contacts        Contacts        `json:"contatti"`
	Education       []Education     `json:"istruzione"`
	Experience      []Experience    `json:"esperienze_lavorative"`
	TechnicalSkills TechnicalSkills `json:"competenze_tecniche"`
	Languages       []LanguageSkill `json:"competenze_linguistiche"`
	SoftSkills      []string        `json:"competenze_trasversali"`
	Certifications  []Certification `json:"certificazioni"`
	Projects        []Project       `json:"progetti"`
	Publications    []Publication   `json:"pubblicazioni"`
	Interests       []string        `json:"interessi"`
	Licenses        []string        `json:"patente"`
	Consent         string          `json:"autorizzazione_trattamento_dati"`
	Availability    Availability    `json:"disponibilita"`
}

type Identity struct {
	FirstName     string `json:"nome"`
	LastName      string `json:"cognome"`
	BirthDate     string `json:"data_nascita"`
	BirthPlace    string `json:"luogo_nascita"`
	Nationality   string `json:"nazionalita"`
	Sex           string `json:"sesso"`
	MaritalStatus string `json:"stato_civile"`
}

type Address struct {
	Street     string `json:"via"`
	City       string `json:"citta"`
	PostalCode string `json:"cap"`
	Province   string `json:"provincia"`
	Country    string `json:"paese"`
}

type Contacts struct {
	Address  Address `json:"indirizzo"`
	Phone    string  `json:"telefono"`
	Mobile   string  `json:"cellulare"`
	Email    string  `json:"email"`
	LinkedIn string  `json:"linkedin"`
	Website  string  `json:"sito_web"`
	GitHub   string  `json:"github"`
}

type Education struct {
	Degree      string `json:"titolo_studio"`
	Institution string `json:"istituto"`
	City        string `json:"citta"`
	Country     string `json:"paese"`
	StartDate   string `json:"data_inizio"`
	EndDate     string `json:"data_fine"`
	Grade       string `json:"voto"`
	Description string `json:"descrizione"`
	Thesis      string `json:"tesi"`
}

type Experience struct {
	Role             string   `json:"posizione"`
	Company          string   `json:"azienda"`
	City             string   `json:"citta"`
	Country          string   `json:"paese"`
	StartDate        string   `json:"data_inizio"`
	EndDate          string   `json:"data_fine"`
	Description      string   `json:"descrizione"`
	Responsibilities []string `json:"responsabilita"`
	Achievements     []string `json:"risultati_ottenuti"`
}

type TechnicalSkills struct {
	ProgrammingLanguages []string `json:"linguaggi_programmazione"`
	Frameworks           []string `json:"framework"`
	Databases            []string `json:"database"`
	Tools                []string `json:"strumenti"`
	Methodologies        []string `json:"metodologie"`
	Other                []string `json:"altre_competenze"`
}

type LanguageSkill struct {
	Language       string   `json:"lingua"`
	Written        string   `json:"livello_scritto"`
	Spoken         string   `json:"livello_parlato"`
	Certifications []string `json:"certificazioni"`
}

type Certification struct {
	Name       string `json:"nome"`
	Issuer     string `json:"ente_certificatore"`
	IssuedOn   string `json:"data_ottenimento"`
	ExpiresOn  string `json:"data_scadenza"`
	Credential string `json:"numero_certificato"`
}

type Project struct {
	Name         string   `json:"nome"`
	Description  string   `json:"descrizione"`
	Role         string   `json:"ruolo"`
	Technologies []string `json:"tecnologie"`
	Link         string   `json:"link"`
}

type Publication struct {
	Title   string   `json:"titolo"`
	Authors []string `json:"autori"`
	Date    string   `json:"data"`
	Venue   string   `json:"rivista_conferenza"`
	Link    string   `json:"link"`
}

type Availability struct {
	Travel        string   `json:"trasferte"`
	Relocation    string   `json:"trasferimento"`
	ContractTypes []string `json:"tipo_contratto_preferito"`
}

// New returns an empty record with every list allocated.
func New() Record {
	return Record{}.Filled()
}

// Filled returns a copy of r where every nil list, at any depth, is an empty list.
func (r Record) Filled() Record {
	out := r
	out.Education = cloneOrEmpty(r.Education)
	out.Experience = cloneOrEmpty(r.Experience)
	for i := range out.Experience {
		out.Experience[i].Responsibilities = cloneOrEmpty(out.Experience[i].Responsibilities)
		out.Experience[i].Achievements = cloneOrEmpty(out.Experience[i].Achievements)
	}
	ts := &out.TechnicalSkills
	ts.ProgrammingLanguages = cloneOrEmpty(ts.ProgrammingLanguages)
	ts.Frameworks = cloneOrEmpty(ts.Frameworks)
	ts.Databases = cloneOrEmpty(ts.Databases)
	ts.Tools = cloneOrEmpty(ts.Tools)
	ts.Methodologies = cloneOrEmpty(ts.Methodologies)
	ts.Other = cloneOrEmpty(ts.Other)
	out.Languages = cloneOrEmpty(r.Languages)
	for i := range out.Languages {
		out.Languages[i].Certifications = cloneOrEmpty(out.Languages[i].Certifications)
	}
	out.SoftSkills = cloneOrEmpty(r.SoftSkills)
	out.Certifications = cloneOrEmpty(r.Certifications)
	out.Projects = cloneOrEmpty(r.Projects)
	for i := range out.Projects {
		out.Projects[i].Technologies = cloneOrEmpty(out.Projects[i].Technologies)
	}
	out.Publications = cloneOrEmpty(r.Publications)
	for i := range out.Publications {
		out.Publications[i].Authors = cloneOrEmpty(out.Publications[i].Authors)
	}
	out.Interests = cloneOrEmpty(r.Interests)
	out.Licenses = cloneOrEmpty(r.Licenses)
	out.Availability.ContractTypes = cloneOrEmpty(r.Availability.ContractTypes)
	return out
}

// MarshalJSON never emits null lists, even for a zero Record.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(plain(r.Filled()))
}

// ToMap returns the generic JSON form of r (objects, strings and []any).
func (r Record) ToMap() (map[string]any, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func cloneOrEmpty[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
