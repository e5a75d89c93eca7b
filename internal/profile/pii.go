package profile

import "strings"

// piiKeys are contact fields that must never reach an AI collaborator
var piiKeys = map[string]struct{}{
	"name":              {},
	"full_name":         {},
	"fullname":          {},
	"email":             {},
	"phone":             {},
	"phone_number":      {},
	"address":           {},
	"address_line1":     {},
	"address_line2":     {},
	"city_state_postal": {},
	"linkedin":          {},
	"contact_info":      {},
}

// piiContainers are top level objects that describe the person, not their
// history. Entity records elsewhere may legitimately carry a "name" field.
var piiContainers = map[string]struct{}{
	"personal_info": {},
	"personalInfo":  {},
	"contact":       {},
	"contact_info":  {},
	"user":          {},
}

func isPIIKey(key string) bool {
	_, ok := piiKeys[strings.ToLower(key)]
	return ok
}

// StripPII returns a copy of raw without personal contact details. Contact
// keys are removed at the top level and inside person containers; entity
// records such as skills or projects keep their own "name" fields.
func StripPII(raw RawProfile) RawProfile {
	out := make(RawProfile, len(raw))
	for k, v := range raw {
		if isPIIKey(k) {
			continue
		}
		if _, container := piiContainers[k]; container {
			if nested, ok := v.(map[string]interface{}); ok {
				out[k] = stripMap(nested)
				continue
			}
		}
		out[k] = stripNestedContact(v)
	}
	return out
}

// ContainsPII reports whether StripPII would remove anything
func ContainsPII(raw RawProfile) bool {
	for k, v := range raw {
		if isPIIKey(k) {
			return true
		}
		if _, container := piiContainers[k]; container {
			if nested, ok := v.(map[string]interface{}); ok && len(stripMap(nested)) != len(nested) {
				return true
			}
		}
		if hasNestedContact(v) {
			return true
		}
	}
	return false
}

func stripMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if isPIIKey(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// stripNestedContact removes email, phone and address keys at any depth while
// leaving "name" alone, since below the top level it names an entity
func stripNestedContact(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			lk := strings.ToLower(k)
			if isPIIKey(lk) && lk != "name" {
				continue
			}
			out[k] = stripNestedContact(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = stripNestedContact(item)
		}
		return out
	default:
		return v
	}
}

func hasNestedContact(v interface{}) bool {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			lk := strings.ToLower(k)
			if isPIIKey(lk) && lk != "name" {
				return true
			}
			if hasNestedContact(val) {
				return true
			}
		}
	case []interface{}:
		for _, item := range t {
			if hasNestedContact(item) {
				return true
			}
		}
	}
	return false
}
