package planner

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"footage/internal/media"
	"footage/internal/placeholder"
	"footage/internal/timestamp"
)

// InvalidBucket is the date folder for files without a usable date.
const InvalidBucket = "invalid_date"

var (
	temporalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{8}`),
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
		regexp.MustCompile(`\d{6}`),
		regexp.MustCompile(`\d{2}[:_-]\d{2}[:_-]\d{2}`),
	}
	edgeSeparators = regexp.MustCompile(`^[_\- ]+|[_\- ]+$`)
	separatorRuns  = regexp.MustCompile(`[_\- ]+`)
)

// CleanName strips dates and times from a file name, collapses separators and
// keeps any stabilized marker. An empty stem becomes the kind name.
func CleanName(name string, kind media.Kind) string {
	ext := filepath.Ext(name)
	stabilized := media.IsStabilized(name)
	stem := strings.TrimSuffix(media.OriginalName(name), ext)

	for _, pattern := range temporalPatterns {
		stem = pattern.ReplaceAllString(stem, "")
	}
	stem = edgeSeparators.ReplaceAllString(stem, "")
	stem = separatorRuns.ReplaceAllString(stem, "_")
	if stem == "" {
		stem = kind.String()
	}
	if stabilized {
		stem += media.StabilizedSuffix
	}
	return stem + ext
}

// MediaName is the planned file name before collision suffixing.
func MediaName(file media.File, res timestamp.Resolution) string {
	if !res.Valid {
		return file.Class.Group + "_" + file.Name
	}
	local := res.Local
	return fmt.Sprintf("%02dh%02dm%02ds_%s_%s", local.Hour(), local.Minute(), local.Second(), file.Class.Group, CleanName(file.Name, file.Class.Kind))
}

// DateFolder is the date component of the destination directory.
func DateFolder(res timestamp.Resolution) string {
	if !res.Valid {
		return InvalidBucket
	}
	return res.Local.Format(time.DateOnly)
}

// Destination returns the placeholder directory and media name for a file.
func Destination(stagingRoot string, file media.File, res timestamp.Resolution) (string, string) {
	return filepath.Join(stagingRoot, file.Class.Kind.String(), DateFolder(res)), MediaName(file, res)
}

// withSuffix inserts _NNN before the extension; n == 0 returns name as-is.
func withSuffix(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s_%03d%s", strings.TrimSuffix(name, ext), n, ext)
}

// placeholderPath joins the directory, suffixed media name and placeholder extension.
func placeholderPath(dir, name string, n int) string {
	return placeholder.PathFor(filepath.Join(dir, withSuffix(name, n)))
}
