package profile

import (
	"fmt"
	"strconv"
	"strings"
)

// Field aliases, canonical name first. Lookups take the first alias that
// holds a non-empty value, so canonical names win over legacy ones.
var (
	keyWorkExperience = []string{"work_experience", "workExperience", "experience", "experiences"}
	keyEducation      = []string{"education", "educations"}
	keyTraining       = []string{"training", "trainings", "courses"}
	keySkills         = []string{"skills", "skill"}
	keyProjects       = []string{"projects", "project"}
	keyCertifications = []string{"certifications", "certificates", "certification"}
	keyUserID         = []string{"user_id", "userId"}

	keyID        = []string{"id", "_id", "uuid"}
	keyStartDate = []string{"start_date", "startDate", "start", "from"}
	keyEndDate   = []string{"end_date", "endDate", "end", "to"}
	keyCurrent   = []string{"current", "is_current", "isCurrent", "currently_working"}
	keyBullets   = []string{"description", "description_bullets", "descriptionBullets", "responsibilities", "bullets"}

	keyTitle    = []string{"title", "positionTitle", "position_title", "job_title", "jobTitle", "position"}
	keyCompany  = []string{"company", "companyName", "company_name", "employer"}
	keyLocation = []string{"location", "city"}
	keyWESkills = []string{"skills", "skills_used", "skillsUsed", "technologies"}

	keyInstitution = []string{"institution", "institutionName", "institution_name", "school", "university"}
	keyDegree      = []string{"degree", "degreeName", "degree_name", "qualification"}
	keyField       = []string{"field_of_study", "fieldOfStudy", "field", "major"}

	keyTrainingName = []string{"name", "title", "courseName", "course_name"}
	keyProvider     = []string{"provider", "organization", "institution", "issuer"}
	keyTrainingDate = []string{"date", "completion_date", "completionDate", "end_date", "endDate"}

	keySkillName = []string{"name", "skillName", "skill_name", "skill"}

	keyProjectName = []string{"name", "title", "projectName", "project_name"}
	keyProjectDesc = []string{"description", "summary", "details"}

	keyCertName   = []string{"name", "title", "certificationName", "certification_name"}
	keyCertIssuer = []string{"issuer", "issuingOrganization", "issuing_organization", "organization", "authority"}
	keyCertYear   = []string{"year", "yearObtained", "year_obtained", "date", "issue_date", "issueDate"}
)

// bulletPrefixes are list markers stripped from the start of each bullet
var bulletPrefixes = []string{"•", "▪", "●", "◦", "‣", "·", "- ", "* ", "– "}

// lookup returns the first alias holding a non-empty value
func lookup(rec map[string]interface{}, aliases []string) (interface{}, bool) {
	for _, key := range aliases {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func lookupString(rec map[string]interface{}, aliases []string) string {
	v, ok := lookup(rec, aliases)
	if !ok {
		return ""
	}
	return scalarString(v)
}

// scalarString renders a scalar JSON value as trimmed text
func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case map[string]interface{}:
		// {"name": "..."} style wrappers
		return lookupString(t, keySkillName)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// lookupBool reads an explicit boolean. ok is false when the field is absent
// or not a recognisable boolean.
func lookupBool(rec map[string]interface{}, aliases []string) (value, ok bool) {
	v, found := lookup(rec, aliases)
	if !found {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}

type splitMode int

const (
	splitLines splitMode = iota
	splitCommas
)

// stringList applies the string-or-array rule: arrays are kept in order,
// strings are split on newlines (bullets) or commas (lists). Every element is
// trimmed and empty ones are dropped.
func stringList(v interface{}, mode splitMode) []string {
	var parts []string
	switch t := v.(type) {
	case nil:
		return []string{}
	case string:
		parts = splitString(t, mode)
	case []string:
		parts = t
	case []interface{}:
		for _, item := range t {
			if item == nil {
				continue
			}
			parts = append(parts, scalarString(item))
		}
	default:
		parts = []string{scalarString(t)}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if mode == splitLines {
			p = stripBullet(p)
		} else {
			p = strings.TrimSpace(p)
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitString(s string, mode splitMode) []string {
	if mode == splitCommas {
		return strings.Split(s, ",")
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}

func stripBullet(s string) string {
	s = strings.TrimSpace(s)
	for {
		stripped := false
		for _, prefix := range bulletPrefixes {
			if strings.HasPrefix(s, prefix) {
				s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
				stripped = true
			}
		}
		if !stripped {
			return s
		}
	}
}

// dedupeFold removes case-insensitive duplicates keeping the first spelling
func dedupeFold(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// records returns the map entries of a list field, skipping anything else
func records(v interface{}) []map[string]interface{} {
	list, ok := v.([]interface{})
	if !ok {
		if typed, ok := v.([]map[string]interface{}); ok {
			return typed
		}
		return nil
	}

	out := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if rec, ok := item.(map[string]interface{}); ok {
			out = append(out, rec)
		}
	}
	return out
}
