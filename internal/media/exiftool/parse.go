package exiftool

import (
	"strings"
	"time"
)

var timestampLayouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006:01:02T15:04:05",
	"2006-01-02T15:04:05",
}

// ParseTimestamp reads an EXIF/QuickTime date. Sub-seconds and any zone suffix
// are dropped; the wall clock is returned in UTC as a naive value. The
// all-zero placeholder some cameras write is rejected.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if len(value) < len("2006:01:02 15:04:05") {
		return time.Time{}, false
	}
	if strings.HasPrefix(value, "0000") {
		return time.Time{}, false
	}
	head := value[:19]
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, head); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
