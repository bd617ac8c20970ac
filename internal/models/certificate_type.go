package models

// CertificateType is an entry of the fixed certificate catalog.
type CertificateType struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Value int    `json:"value"`
}

const (
	TypeNPTEL                    = "NPTEL"
	TypeStateCompetition         = "STATE_COMPETITION"
	TypeNationalCompetition      = "NATIONAL_COMPETITION"
	TypeInternationalCompetition = "INTERNATIONAL_COMPETITION"
	TypeCoursera                 = "COURSERA"
	TypeUdemy                    = "UDEMY"
	TypeInternship               = "INTERNSHIP"
	TypeWorkshop                 = "WORKSHOP"
	TypeHackathon                = "HACKATHON"
	TypeResearchPaper            = "RESEARCH_PAPER"
)

// certificateTypes is ordered; analytics and the catalog endpoint keep this order.
var certificateTypes = []CertificateType{
	{Type: TypeNPTEL, Label: "NPTEL Course", Value: 2},
	{Type: TypeStateCompetition, Label: "State Level Competition", Value: 3},
	{Type: TypeNationalCompetition, Label: "National Level Competition", Value: 4},
	{Type: TypeInternationalCompetition, Label: "International Competition", Value: 5},
	{Type: TypeCoursera, Label: "Coursera Course", Value: 2},
	{Type: TypeUdemy, Label: "Udemy Course", Value: 1},
	{Type: TypeInternship, Label: "Internship Completion", Value: 3},
	{Type: TypeWorkshop, Label: "Workshop Participation", Value: 1},
	{Type: TypeHackathon, Label: "Hackathon Achievement", Value: 2},
	{Type: TypeResearchPaper, Label: "Research Paper Publication", Value: 4},
}

var certificateTypeIndex = func() map[string]CertificateType {
	m := make(map[string]CertificateType, len(certificateTypes))
	for _, t := range certificateTypes {
		m[t.Type] = t
	}
	return m
}()

// CertificateTypes returns a copy of the catalog.
func CertificateTypes() []CertificateType {
	out := make([]CertificateType, len(certificateTypes))
	copy(out, certificateTypes)
	return out
}

// LookupCertificateType finds a catalog entry by its exact key.
func LookupCertificateType(key string) (CertificateType, bool) {
	t, ok := certificateTypeIndex[key]
	return t, ok
}
