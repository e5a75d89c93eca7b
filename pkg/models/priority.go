package models

// PriorityContent is a piece of document content ranked by how essential it
// is. Priority 1 is the most essential.
type PriorityContent struct {
	Content  string `json:"content"`
	Priority int    `json:"priority"`
}

// PrioritizedExperience is a work experience whose responsibilities carry priorities
type PrioritizedExperience struct {
	Title            string            `json:"title"`
	Company          string            `json:"company"`
	Location         string            `json:"location,omitempty"`
	Dates            string            `json:"dates"`
	Responsibilities []PriorityContent `json:"responsibilities"`
}

// PrioritizedProfile is a document draft whose sections are annotated with priorities
type PrioritizedProfile struct {
	Summary          *PriorityContent        `json:"summary,omitempty"`
	Achievements     []PriorityContent       `json:"relevant_achievements"`
	Experience       []PrioritizedExperience `json:"experience"`
	CoreCompetencies []PriorityContent       `json:"core_competencies"`
	Certifications   []PriorityContent       `json:"certifications"`
	Education        []PriorityContent       `json:"education"`
	CoverLetter      *PriorityContent        `json:"cover_letter,omitempty"`
}

// DocumentLength is the requested density of a generated document
type DocumentLength string

const (
	DocumentLengthShort    DocumentLength = "short"
	DocumentLengthMedium   DocumentLength = "medium"
	DocumentLengthLong     DocumentLength = "long"
	DocumentLengthExtended DocumentLength = "extended"
)

// DocumentLengths lists the known lengths from shortest to longest
var DocumentLengths = []DocumentLength{
	DocumentLengthShort,
	DocumentLengthMedium,
	DocumentLengthLong,
	DocumentLengthExtended,
}
