package models

// EndDateCurrent is the end date stored for an experience that is still ongoing.
const EndDateCurrent = "current"

// CareerProfile is the canonical, normalized professional history of one user
type CareerProfile struct {
	UserID         string           `json:"user_id,omitempty"`
	WorkExperience []WorkExperience `json:"work_experience"`
	Education      []Education      `json:"education"`
	Training       []Training       `json:"training"`
	Skills         []Skill          `json:"skills"`
	Projects       []Project        `json:"projects"`
	Certifications []Certification  `json:"certifications"`
}

// WorkExperience represents a single role in the profile timeline.
// StartDate and EndDate are YYYY-MM, empty when unknown, and EndDate is
// EndDateCurrent when Current is set.
type WorkExperience struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Current     bool     `json:"current"`
	Description []string `json:"description"`
	Skills      []string `json:"skills"`
}

// Education represents an education entry
type Education struct {
	ID          string   `json:"id"`
	Institution string   `json:"institution"`
	Degree      string   `json:"degree"`
	Field       string   `json:"field_of_study"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Description []string `json:"description"`
}

// Training represents a course or other training entry
type Training struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Provider    string   `json:"provider"`
	Date        string   `json:"date"`
	Description []string `json:"description"`
}

// Skill represents a single entry of the profile's skill set
type Skill struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Project represents a personal or professional project
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Certification represents a certificate held by the user
type Certification struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Year   string `json:"year"`
}

// IsCurrent reports whether the role is still ongoing
func (w WorkExperience) IsCurrent() bool {
	return w.Current || w.EndDate == EndDateCurrent
}

// SkillNames returns the names of the profile's skill set in order
func (p *CareerProfile) SkillNames() []string {
	names := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		names = append(names, s.Name)
	}
	return names
}
