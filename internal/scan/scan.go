package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"footage/internal/config"
	"footage/internal/media"
)

// Skip reasons.
const (
	ReasonUnsupported  = "unsupported-extension"
	ReasonSuperseded   = "superseded-by-stabilized"
	ReasonKindExcluded = "kind-excluded"
	ReasonNotRegular   = "not-regular-file"
)

// Skip records a file the scanner did not return.
type Skip struct {
	Path   string
	Reason string
	Detail string
}

// Result is the outcome of one scan.
type Result struct {
	Files   []media.File
	Skipped []Skip
}

// Options controls which files are returned.
type Options struct {
	Rules         media.Rules
	IncludeVideos bool
	IncludePhotos bool
}

// OptionsFromConfig builds Options from the media section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Rules:         media.RulesFromConfig(cfg),
		IncludeVideos: cfg.Media.IncludeVideos,
		IncludePhotos: cfg.Media.IncludePhotos,
	}
}

func (o Options) includes(kind media.Kind) bool {
	switch kind {
	case media.KindVideo:
		return o.IncludeVideos
	case media.KindPhoto:
		return o.IncludePhotos
	default:
		return false
	}
}

// Walk scans rawRoot in lexical order. Hidden files and directories are
// ignored. When both NAME.ext and NAME_stabilized.ext sit in one directory
// only the stabilized file is returned, with Original pointing at its
// sibling.
func Walk(ctx context.Context, rawRoot string, opts Options) (Result, error) {
	info, err := os.Stat(rawRoot)
	if err != nil {
		return Result{}, fmt.Errorf("raw root: %w", err)
	}
	if !info.IsDir() {
		return Result{}, fmt.Errorf("raw root %s is not a directory", rawRoot)
	}

	var result Result
	err = filepath.WalkDir(rawRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != rawRoot && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return scanDir(path, rawRoot, opts, &result)
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

type candidate struct {
	path string
	info fs.FileInfo
	kind media.Kind
}

// scanDir handles the regular files of one directory; subdirectories are
// reached by the outer walk.
func scanDir(dir, rawRoot string, opts Options, result *Result) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	byName := make(map[string]candidate, len(entries))
	var order []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)
		kind := opts.Rules.KindOf(name)
		if kind == media.KindUnknown {
			result.Skipped = append(result.Skipped, Skip{Path: path, Reason: ReasonUnsupported})
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			result.Skipped = append(result.Skipped, Skip{Path: path, Reason: ReasonNotRegular})
			continue
		}
		byName[strings.ToLower(name)] = candidate{path: path, info: info, kind: kind}
		order = append(order, name)
	}

	superseded := make(map[string]string)
	for _, name := range order {
		if media.IsStabilized(name) {
			superseded[strings.ToLower(media.OriginalName(name))] = name
		}
	}

	for _, name := range order {
		c := byName[strings.ToLower(name)]
		if !media.IsStabilized(name) {
			if variant, ok := superseded[strings.ToLower(name)]; ok {
				result.Skipped = append(result.Skipped, Skip{
					Path:   c.path,
					Reason: ReasonSuperseded,
					Detail: variant,
				})
				continue
			}
		}
		if !opts.includes(c.kind) {
			result.Skipped = append(result.Skipped, Skip{Path: c.path, Reason: ReasonKindExcluded, Detail: c.kind.String()})
			continue
		}

		file := media.File{
			Path:    c.path,
			Name:    name,
			Ext:     filepath.Ext(name),
			Size:    c.info.Size(),
			ModTime: c.info.ModTime(),
			Class:   media.Classify(c.path, rawRoot, opts.Rules),
		}
		if media.IsStabilized(name) {
			if original, ok := byName[strings.ToLower(media.OriginalName(name))]; ok {
				file.Original = original.path
				file.OriginalModTime = original.info.ModTime()
			} else {
				file.Note = "orphaned stabilized file; no original " + media.OriginalName(name) + " in folder"
			}
		}
		result.Files = append(result.Files, file)
	}
	return nil
}

// Counts tallies returned files by kind.
func (r Result) Counts() (videos, photos int) {
	for _, file := range r.Files {
		switch file.Class.Kind {
		case media.KindVideo:
			videos++
		case media.KindPhoto:
			photos++
		}
	}
	return videos, photos
}
