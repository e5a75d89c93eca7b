package models

import "time"

// NormalizeRequest carries a raw, possibly legacy-shaped profile document
type NormalizeRequest struct {
	Profile map[string]interface{} `json:"profile" validate:"required"`
}

// KeywordsRequest asks for keywords to be extracted from a job description
type KeywordsRequest struct {
	JobDescription string `json:"job_description" validate:"required,min=20"`
	Format         string `json:"format,omitempty" validate:"omitempty,oneof=text html"`
}

// ScoreRequest scores keywords against a profile. When Keywords is empty the
// keywords are extracted from JobDescription. When Profile is nil the
// caller's stored profile is used.
type ScoreRequest struct {
	Keywords       []string               `json:"keywords,omitempty" validate:"omitempty,max=200,dive,max=120"`
	JobDescription string                 `json:"job_description,omitempty"`
	Format         string                 `json:"format,omitempty" validate:"omitempty,oneof=text html"`
	Profile        map[string]interface{} `json:"profile,omitempty"`
	Now            *time.Time             `json:"now,omitempty"`
}

// SectionToggles switches whole document sections on or off
type SectionToggles struct {
	IncludeAchievements   bool `json:"include_achievements"`
	IncludeCompetencies   bool `json:"include_competencies"`
	IncludeCertifications bool `json:"include_certifications"`
	IncludeEducation      bool `json:"include_education"`
}

// DefaultSectionToggles enables every section
func DefaultSectionToggles() SectionToggles {
	return SectionToggles{
		IncludeAchievements:   true,
		IncludeCompetencies:   true,
		IncludeCertifications: true,
		IncludeEducation:      true,
	}
}

// FilterRequest selects content from a prioritized draft. Either Length or
// MaxPriority must be given; MaxPriority wins when both are set.
type FilterRequest struct {
	Profile     PrioritizedProfile `json:"profile"`
	Length      DocumentLength     `json:"length,omitempty" validate:"omitempty,document_length"`
	MaxPriority int                `json:"max_priority,omitempty" validate:"omitempty,min=1"`
	Sections    *SectionToggles    `json:"sections,omitempty"`
}
