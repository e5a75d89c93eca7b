package extraction

import (
	"strings"

	"careerarc/internal/profile"
)

// recordSections are the sections that hold lists of objects
var recordSections = []string{"work_experience", "education", "training", "projects", "certifications"}

// Sanitize drops entries that cannot be read as records: non-object items in
// record sections and objects without a single non-empty value. It returns
// the cleaned document and how many entries were dropped. The input is not
// modified.
func Sanitize(raw profile.RawProfile) (profile.RawProfile, int) {
	clean := make(profile.RawProfile, len(raw))
	for k, v := range raw {
		clean[k] = v
	}

	dropped := 0
	for _, section := range recordSections {
		v, ok := raw[section]
		if !ok || v == nil {
			continue
		}
		items, isList := v.([]interface{})
		if !isList {
			// a lone object is tolerated, anything else is malformed
			if rec, isRec := v.(map[string]interface{}); isRec && hasContent(rec) {
				clean[section] = []interface{}{rec}
				continue
			}
			delete(clean, section)
			dropped++
			continue
		}

		kept := make([]interface{}, 0, len(items))
		for _, item := range items {
			rec, isRec := item.(map[string]interface{})
			if !isRec || !hasContent(rec) {
				dropped++
				continue
			}
			kept = append(kept, rec)
		}
		clean[section] = kept
	}
	return clean, dropped
}

func hasContent(rec map[string]interface{}) bool {
	for _, v := range rec {
		switch t := v.(type) {
		case nil:
		case string:
			if strings.TrimSpace(t) != "" {
				return true
			}
		case []interface{}:
			if len(t) > 0 {
				return true
			}
		case bool:
			// a flag alone does not make a record
		default:
			return true
		}
	}
	return false
}
