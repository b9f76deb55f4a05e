package media

import (
	"path/filepath"
	"strings"
)

// StabilizedSuffix marks the output of a stabilization pass.
const StabilizedSuffix = "_stabilized"

var stabilizedMarkers = []string{"_stabilized", " stabilized"}

// IsStabilized reports whether the stem ends with a stabilized marker.
func IsStabilized(name string) bool {
	_, ok := trimStabilized(stem(name))
	return ok
}

// OriginalName returns the non-stabilized sibling name, or name unchanged.
func OriginalName(name string) string {
	base, ok := trimStabilized(stem(name))
	if !ok {
		return name
	}
	return base + filepath.Ext(name)
}

// StabilizedName returns the stabilized variant name of an original file.
func StabilizedName(name string) string {
	if IsStabilized(name) {
		return name
	}
	return stem(name) + StabilizedSuffix + filepath.Ext(name)
}

func trimStabilized(s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, marker := range stabilizedMarkers {
		if strings.HasSuffix(lower, marker) && len(s) > len(marker) {
			return s[:len(s)-len(marker)], true
		}
	}
	return s, false
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
