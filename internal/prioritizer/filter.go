// Package prioritizer selects the content of a prioritized document draft
// that fits a requested document length.
package prioritizer

import (
	"careerarc/pkg/models"
)

// Filter keeps every item whose priority is at or below maxPriority. Roles
// are never dropped: a role with no surviving responsibilities is kept with
// an empty list. Sections whose toggle is off are emptied. The input is not
// modified and item order is preserved.
func Filter(p models.PrioritizedProfile, maxPriority int, toggles models.SectionToggles) models.PrioritizedProfile {
	out := models.PrioritizedProfile{
		Summary:          cloneContent(p.Summary),
		CoverLetter:      cloneContent(p.CoverLetter),
		Achievements:     []models.PriorityContent{},
		Experience:       make([]models.PrioritizedExperience, 0, len(p.Experience)),
		CoreCompetencies: []models.PriorityContent{},
		Certifications:   []models.PriorityContent{},
		Education:        []models.PriorityContent{},
	}

	if toggles.IncludeAchievements {
		out.Achievements = keep(p.Achievements, maxPriority)
	}
	if toggles.IncludeCompetencies {
		out.CoreCompetencies = keep(p.CoreCompetencies, maxPriority)
	}
	if toggles.IncludeCertifications {
		out.Certifications = keep(p.Certifications, maxPriority)
	}
	if toggles.IncludeEducation {
		out.Education = keep(p.Education, maxPriority)
	}

	for _, exp := range p.Experience {
		exp.Responsibilities = keep(exp.Responsibilities, maxPriority)
		out.Experience = append(out.Experience, exp)
	}
	return out
}

func keep(items []models.PriorityContent, maxPriority int) []models.PriorityContent {
	out := make([]models.PriorityContent, 0, len(items))
	for _, item := range items {
		if item.Priority <= maxPriority {
			out = append(out, item)
		}
	}
	return out
}

func cloneContent(c *models.PriorityContent) *models.PriorityContent {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
