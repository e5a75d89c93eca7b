package scoring

import (
	"strings"
	"time"

	"careerarc/pkg/models"
)

// evidence is the searchable text of one profile entity
type evidence struct {
	id     string
	fields []string
}

func (e evidence) contains(kw string) bool {
	for _, f := range e.fields {
		if strings.Contains(f, kw) {
			return true
		}
	}
	return false
}

// index splits a profile into the evidence tiers the classification rules
// look at, with all text normalized once up front
type index struct {
	recent []evidence
	older  []evidence
	skills []evidence
	other  []evidence
}

func (s *Scorer) buildIndex(p *models.CareerProfile, now time.Time) *index {
	idx := &index{}
	if p == nil {
		return idx
	}

	for _, we := range p.WorkExperience {
		core := evidence{id: we.ID, fields: normalizeAll(append(append([]string{we.Title}, we.Description...), we.Skills...))}
		if s.isRecent(we, now) {
			idx.recent = append(idx.recent, core)
		} else {
			idx.older = append(idx.older, core)
		}
		idx.other = append(idx.other, evidence{id: we.ID, fields: normalizeAll([]string{we.Company, we.Location})})
	}

	for _, sk := range p.Skills {
		idx.skills = append(idx.skills, evidence{id: sk.ID, fields: normalizeAll([]string{sk.Name})})
	}

	for _, edu := range p.Education {
		fields := append([]string{edu.Institution, edu.Degree, edu.Field}, edu.Description...)
		idx.other = append(idx.other, evidence{id: edu.ID, fields: normalizeAll(fields)})
	}
	for _, tr := range p.Training {
		fields := append([]string{tr.Name, tr.Provider}, tr.Description...)
		idx.other = append(idx.other, evidence{id: tr.ID, fields: normalizeAll(fields)})
	}
	for _, prj := range p.Projects {
		idx.other = append(idx.other, evidence{id: prj.ID, fields: normalizeAll([]string{prj.Name, prj.Description})})
	}
	for _, cert := range p.Certifications {
		idx.other = append(idx.other, evidence{id: cert.ID, fields: normalizeAll([]string{cert.Name, cert.Issuer})})
	}
	return idx
}

// assess applies the rules in order. The first tier with any evidence
// decides the status and only that tier's entities are cited.
func (idx *index) assess(kw string) models.KeywordAssessment {
	if refs := matching(kw, idx.recent, idx.skills); len(refs) > 0 {
		return models.KeywordAssessment{Status: models.RAGGreen, EvidenceRefs: refs}
	}
	if refs := matching(kw, idx.older, idx.other); len(refs) > 0 {
		return models.KeywordAssessment{Status: models.RAGAmber, EvidenceRefs: refs}
	}
	return models.KeywordAssessment{Status: models.RAGRed, EvidenceRefs: []string{}}
}

func matching(kw string, tiers ...[]evidence) []string {
	var refs []string
	seen := map[string]struct{}{}
	for _, tier := range tiers {
		for _, e := range tier {
			if !e.contains(kw) {
				continue
			}
			if _, dup := seen[e.id]; dup {
				continue
			}
			seen[e.id] = struct{}{}
			refs = append(refs, e.id)
		}
	}
	return refs
}

func normalizeAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if n := normalizeText(item); n != "" {
			out = append(out, n)
		}
	}
	return out
}
