// Package profile turns raw, possibly legacy-shaped profile documents into
// the canonical CareerProfile. Every string-or-array ambiguity is resolved
// here, once, so nothing downstream ever parses raw strings again.
package profile

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"careerarc/pkg/models"
)

// RawProfile is a decoded profile document as produced by the profile store,
// the extraction service or an older client
type RawProfile = map[string]interface{}

// RawProfileFromJSON decodes a raw profile document
func RawProfileFromJSON(data []byte) (RawProfile, error) {
	var raw RawProfile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode profile document: %w", err)
	}
	if raw == nil {
		raw = RawProfile{}
	}
	return raw, nil
}

// FromProfile renders a canonical profile back into raw document shape
func FromProfile(p *models.CareerProfile) RawProfile {
	data, err := json.Marshal(p)
	if err != nil {
		return RawProfile{}
	}
	raw, err := RawProfileFromJSON(data)
	if err != nil {
		return RawProfile{}
	}
	return raw
}

// Normalize canonicalizes a raw profile. It never fails: malformed or
// missing values become empty values.
func Normalize(raw RawProfile) *models.CareerProfile {
	if raw == nil {
		raw = RawProfile{}
	}

	p := &models.CareerProfile{
		UserID:         lookupString(raw, keyUserID),
		WorkExperience: []models.WorkExperience{},
		Education:      []models.Education{},
		Training:       []models.Training{},
		Skills:         []models.Skill{},
		Projects:       []models.Project{},
		Certifications: []models.Certification{},
	}

	if v, ok := lookup(raw, keyWorkExperience); ok {
		for i, rec := range records(v) {
			if we, keep := normalizeWorkExperience(rec, i); keep {
				p.WorkExperience = append(p.WorkExperience, we)
			}
		}
		SortWorkExperience(p.WorkExperience)
	}

	if v, ok := lookup(raw, keyEducation); ok {
		for i, rec := range records(v) {
			if edu, keep := normalizeEducation(rec, i); keep {
				p.Education = append(p.Education, edu)
			}
		}
		sortEducation(p.Education)
	}

	if v, ok := lookup(raw, keyTraining); ok {
		for i, rec := range records(v) {
			if tr, keep := normalizeTraining(rec, i); keep {
				p.Training = append(p.Training, tr)
			}
		}
	}

	if v, ok := lookup(raw, keySkills); ok {
		p.Skills = normalizeSkills(v)
	}

	if v, ok := lookup(raw, keyProjects); ok {
		for i, rec := range records(v) {
			if prj, keep := normalizeProject(rec, i); keep {
				p.Projects = append(p.Projects, prj)
			}
		}
	}

	if v, ok := lookup(raw, keyCertifications); ok {
		for i, rec := range records(v) {
			if cert, keep := normalizeCertification(rec, i); keep {
				p.Certifications = append(p.Certifications, cert)
			}
		}
	}

	return p
}

func entityID(rec map[string]interface{}, prefix string, index int) string {
	if id := lookupString(rec, keyID); id != "" {
		return id
	}
	return fmt.Sprintf("%s-%d", prefix, index)
}

func normalizeWorkExperience(rec map[string]interface{}, index int) (models.WorkExperience, bool) {
	we := models.WorkExperience{
		ID:          entityID(rec, "we", index),
		Title:       lookupString(rec, keyTitle),
		Company:     lookupString(rec, keyCompany),
		Location:    lookupString(rec, keyLocation),
		StartDate:   NormalizeDate(lookupString(rec, keyStartDate)),
		Description: []string{},
		Skills:      []string{},
	}

	if v, ok := lookup(rec, keyBullets); ok {
		we.Description = stringList(v, splitLines)
	}
	if v, ok := lookup(rec, keyWESkills); ok {
		we.Skills = dedupeFold(stringList(v, splitCommas))
	}

	rawEnd := lookupString(rec, keyEndDate)
	if current, explicit := lookupBool(rec, keyCurrent); explicit {
		we.Current = current
	} else {
		we.Current = rawEnd == "" || IsCurrentMarker(rawEnd)
	}

	if we.Current {
		we.EndDate = models.EndDateCurrent
	} else {
		we.EndDate = NormalizeDate(rawEnd)
	}

	keep := we.Title != "" || we.Company != "" || len(we.Description) > 0
	return we, keep
}

func normalizeEducation(rec map[string]interface{}, index int) (models.Education, bool) {
	edu := models.Education{
		ID:          entityID(rec, "edu", index),
		Institution: lookupString(rec, keyInstitution),
		Degree:      lookupString(rec, keyDegree),
		Field:       lookupString(rec, keyField),
		StartDate:   NormalizeDate(lookupString(rec, keyStartDate)),
		Description: []string{},
	}

	rawEnd := lookupString(rec, keyEndDate)
	if IsCurrentMarker(rawEnd) {
		edu.EndDate = models.EndDateCurrent
	} else {
		edu.EndDate = NormalizeDate(rawEnd)
	}

	if v, ok := lookup(rec, keyBullets); ok {
		edu.Description = stringList(v, splitLines)
	}

	keep := edu.Institution != "" || edu.Degree != "" || edu.Field != ""
	return edu, keep
}

func normalizeTraining(rec map[string]interface{}, index int) (models.Training, bool) {
	tr := models.Training{
		ID:          entityID(rec, "trn", index),
		Name:        lookupString(rec, keyTrainingName),
		Provider:    lookupString(rec, keyProvider),
		Date:        NormalizeDate(lookupString(rec, keyTrainingDate)),
		Description: []string{},
	}
	if v, ok := lookup(rec, keyBullets); ok {
		tr.Description = stringList(v, splitLines)
	}
	return tr, tr.Name != ""
}

// normalizeSkills accepts a comma separated string, a list of names, or a
// list of {name} objects. Duplicates are dropped case-insensitively.
func normalizeSkills(v interface{}) []models.Skill {
	skills := []models.Skill{}
	seen := map[string]struct{}{}

	add := func(id, name string) {
		key := strings.ToLower(name)
		if name == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		if id == "" {
			id = fmt.Sprintf("skill-%d", len(skills))
		}
		skills = append(skills, models.Skill{ID: id, Name: name})
	}

	list, isList := v.([]interface{})
	if !isList {
		for _, name := range stringList(v, splitCommas) {
			add("", name)
		}
		return skills
	}

	for _, item := range list {
		if rec, ok := item.(map[string]interface{}); ok {
			add(lookupString(rec, keyID), lookupString(rec, keySkillName))
			continue
		}
		for _, name := range stringList([]interface{}{item}, splitCommas) {
			add("", name)
		}
	}
	return skills
}

func normalizeProject(rec map[string]interface{}, index int) (models.Project, bool) {
	prj := models.Project{
		ID:   entityID(rec, "prj", index),
		Name: lookupString(rec, keyProjectName),
	}
	if v, ok := lookup(rec, keyProjectDesc); ok {
		prj.Description = strings.Join(stringList(v, splitLines), "\n")
	}
	return prj, prj.Name != "" || prj.Description != ""
}

func normalizeCertification(rec map[string]interface{}, index int) (models.Certification, bool) {
	cert := models.Certification{
		ID:     entityID(rec, "cert", index),
		Name:   lookupString(rec, keyCertName),
		Issuer: lookupString(rec, keyCertIssuer),
		Year:   extractYear(lookupString(rec, keyCertYear)),
	}
	return cert, cert.Name != ""
}

// SortWorkExperience orders roles most recent first: current roles, then by
// end date, then by start date, all descending. Unknown dates sort last.
// The sort is stable so equal roles keep their input order.
func SortWorkExperience(items []models.WorkExperience) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.IsCurrent() != b.IsCurrent() {
			return a.IsCurrent()
		}
		if a.EndDate != b.EndDate {
			return a.EndDate > b.EndDate
		}
		return a.StartDate > b.StartDate
	})
}

func sortEducation(items []models.Education) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		aCur, bCur := a.EndDate == models.EndDateCurrent, b.EndDate == models.EndDateCurrent
		if aCur != bCur {
			return aCur
		}
		if a.EndDate != b.EndDate {
			return a.EndDate > b.EndDate
		}
		return a.StartDate > b.StartDate
	})
}
