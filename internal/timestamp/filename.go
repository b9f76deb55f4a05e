package timestamp

import (
	"regexp"
	"time"
)

type namePattern struct {
	re     *regexp.Regexp
	layout string
	label  string
}

// Patterns are tried in order; full date-times before date-only forms.
var namePatterns = []namePattern{
	// Up to three trailing digits are milliseconds, as in PXL_20241015_123045123.
	{regexp.MustCompile(`(?:^|\D)(\d{8})[_-]?(\d{6})\d{0,3}(?:\D|$)`), "20060102150405", "YYYYMMDD_HHMMSS"},
	{regexp.MustCompile(`(?:^|\D)(\d{4}-\d{2}-\d{2})[ _T-](\d{2})[-.:h](\d{2})[-.:m](\d{2})(?:\D|$)`), "2006-01-02150405", "YYYY-MM-DD_HH-MM-SS"},
	{regexp.MustCompile(`(?:^|\D)(\d{8})(?:\D|$)`), "20060102", "YYYYMMDD"},
	{regexp.MustCompile(`(?:^|\D)(\d{4}-\d{2}-\d{2})(?:\D|$)`), "2006-01-02", "YYYY-MM-DD"},
}

// ParseFilename extracts a naive wall-clock time embedded in a file name and
// the pattern that matched. Impossible dates (month 13, Feb 30) are rejected.
func ParseFilename(name string) (time.Time, string, bool) {
	for _, pattern := range namePatterns {
		for _, match := range pattern.re.FindAllStringSubmatch(name, -1) {
			var digits string
			for _, group := range match[1:] {
				digits += group
			}
			parsed, err := time.ParseInLocation(pattern.layout, digits, time.UTC)
			if err != nil {
				continue
			}
			return parsed, pattern.label, true
		}
	}
	return time.Time{}, "", false
}
