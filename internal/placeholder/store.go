package placeholder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"footage/internal/fileutil"
	"footage/internal/services"
)

// ErrExists is returned by Create when a placeholder is already present.
var ErrExists = fs.ErrExist

// Read loads and validates a placeholder.
func Read(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, services.Wrap(services.ErrNotFound, "placeholder", "read", path, err)
		}
		return Record{}, err
	}
	rec, err := Decode(data)
	if err != nil {
		return Record{}, services.Wrap(services.ErrValidation, "placeholder", "decode", path, err)
	}
	if err := rec.Validate(); err != nil {
		return Record{}, services.Wrap(services.ErrValidation, "placeholder", "validate", path, err)
	}
	return rec, nil
}

// Create writes a new placeholder atomically and fails with ErrExists if the
// path is taken.
func Create(path string, rec Record) error {
	data, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("encode placeholder: %w", err)
	}
	if err := fileutil.WriteFileAtomicNoOverwrite(path, data); err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrExists
		}
		return fmt.Errorf("write placeholder %s: %w", path, err)
	}
	return nil
}

// Replace rewrites a placeholder atomically.
func Replace(path string, rec Record) error {
	data, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("encode placeholder: %w", err)
	}
	if err := fileutil.WriteFileAtomicReplace(path, data); err != nil {
		return fmt.Errorf("write placeholder %s: %w", path, err)
	}
	return nil
}

// MediaPath strips the placeholder extension.
func MediaPath(path string) string {
	return strings.TrimSuffix(path, Extension)
}

// PathFor returns the placeholder path for a planned media path.
func PathFor(mediaPath string) string {
	return mediaPath + Extension
}

// Walk visits every placeholder under root in lexical order. Hidden entries
// and the lock file are ignored. A missing root yields no placeholders.
func Walk(root string, fn func(path string) error) error {
	if _, err := os.Stat(root); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(name), Extension) {
			return nil
		}
		return fn(path)
	})
}

// Entry pairs a placeholder path with its record.
type Entry struct {
	Path   string
	Record Record
}

// Index maps original source paths to their existing placeholders.
type Index struct {
	byOriginal map[string]Entry
	taken      map[string]string
	Invalid    []string
}

// BuildIndex reads every placeholder under root. Unreadable placeholders are
// listed in Invalid and still reserve their path.
func BuildIndex(root string) (*Index, error) {
	idx := &Index{byOriginal: map[string]Entry{}, taken: map[string]string{}}
	err := Walk(root, func(path string) error {
		rec, err := Read(path)
		if err != nil {
			idx.Invalid = append(idx.Invalid, path)
			idx.taken[path] = ""
			return nil
		}
		idx.Add(path, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// Add registers a placeholder.
func (i *Index) Add(path string, rec Record) {
	i.byOriginal[rec.Info.OriginalPath] = Entry{Path: path, Record: rec}
	i.taken[path] = rec.Info.OriginalPath
}

// Remove drops a placeholder path and its original mapping.
func (i *Index) Remove(path string) {
	if original, ok := i.taken[path]; ok {
		if entry, ok := i.byOriginal[original]; ok && entry.Path == path {
			delete(i.byOriginal, original)
		}
		delete(i.taken, path)
	}
}

// Lookup finds the placeholder planned for an original path.
func (i *Index) Lookup(original string) (Entry, bool) {
	entry, ok := i.byOriginal[original]
	return entry, ok
}

// Owner reports which original path a placeholder path is reserved for.
func (i *Index) Owner(path string) (string, bool) {
	original, ok := i.taken[path]
	return original, ok
}

// Len is the number of indexed placeholders.
func (i *Index) Len() int {
	return len(i.byOriginal)
}
