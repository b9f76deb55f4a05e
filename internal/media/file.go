package media

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// File is an immutable reference to one discovered source file.
type File struct {
	Path    string
	Name    string
	Ext     string
	Size    int64
	ModTime time.Time
	Class   Classification
	Note    string

	// Original is the non-stabilized sibling of a stabilized variant, when
	// present. Timestamps are resolved from it.
	Original        string
	OriginalModTime time.Time
}

// NewFile stats path and classifies it.
func NewFile(path, rawRoot string, rules Rules) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return File{}, fmt.Errorf("stat %s: not a regular file", path)
	}
	name := filepath.Base(path)
	return File{
		Path:    path,
		Name:    name,
		Ext:     filepath.Ext(name),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Class:   Classify(path, rawRoot, rules),
	}, nil
}

// Stabilized reports whether the file is a stabilized variant.
func (f File) Stabilized() bool {
	return IsStabilized(f.Name)
}

// TimestampSource returns the path and mtime timestamps should be derived from.
func (f File) TimestampSource() (string, time.Time) {
	if f.Original != "" {
		return f.Original, f.OriginalModTime
	}
	return f.Path, f.ModTime
}
