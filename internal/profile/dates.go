package profile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"careerarc/pkg/models"
)

var (
	isoDatePattern     = regexp.MustCompile(`^(\d{4})-(\d{1,2})(?:-(\d{1,2})(?:[t ].*)?)?$`)
	slashDatePattern   = regexp.MustCompile(`^(\d{1,2})/(\d{4})$`)
	monthYearPattern   = regexp.MustCompile(`^([a-z]+)\.?,?\s+(\d{4})$`)
	currentEndSentinel = map[string]struct{}{
		"present":             {},
		models.EndDateCurrent: {},
		"now":                 {},
		"ongoing":             {},
	}
)

var monthNames = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// NormalizeDate converts YYYY-MM, YYYY-MM-DD, MM/YYYY and "Mon YYYY" forms
// to YYYY-MM. Anything else, including an empty string, yields "".
func NormalizeDate(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		return formatYearMonth(m[1], m[2])
	}
	if m := slashDatePattern.FindStringSubmatch(s); m != nil {
		return formatYearMonth(m[2], m[1])
	}
	if m := monthYearPattern.FindStringSubmatch(s); m != nil {
		month, ok := monthNames[m[1]]
		if !ok {
			return ""
		}
		return formatYearMonth(m[2], strconv.Itoa(month))
	}
	return ""
}

// IsCurrentMarker reports whether an end date value means "still ongoing"
func IsCurrentMarker(s string) bool {
	_, ok := currentEndSentinel[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ParseYearMonth parses a normalized YYYY-MM date to the first day of that
// month in UTC
func ParseYearMonth(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func formatYearMonth(year, month string) string {
	y, err := strconv.Atoi(year)
	if err != nil || y < 1900 || y > 2200 {
		return ""
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", y, m)
}

var yearPattern = regexp.MustCompile(`\b(19|20|21)\d{2}\b`)

// extractYear pulls the first plausible four digit year out of free text
func extractYear(s string) string {
	return yearPattern.FindString(s)
}
