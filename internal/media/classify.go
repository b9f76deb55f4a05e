package media

import (
	"path/filepath"
	"strings"

	"footage/internal/config"
)

// RootGroup is the group of files sitting directly under the raw root.
const RootGroup = "root"

// Rules holds the extension allow-lists and drone group set used by Classify.
type Rules struct {
	video  map[string]struct{}
	photo  map[string]struct{}
	drones map[string]struct{}
}

// NewRules builds classification rules. Extensions and groups are matched
// case-insensitively; extensions may be given with or without the dot.
func NewRules(videoExts, photoExts, droneGroups []string) Rules {
	return Rules{
		video:  extensionSet(videoExts),
		photo:  extensionSet(photoExts),
		drones: lowerSet(droneGroups),
	}
}

// RulesFromConfig builds rules from the media section.
func RulesFromConfig(cfg *config.Config) Rules {
	return NewRules(cfg.Media.VideoExtensions, cfg.Media.PhotoExtensions, cfg.Media.DroneGroups)
}

// KindOf classifies a file name by extension.
func (r Rules) KindOf(name string) Kind {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := r.video[ext]; ok {
		return KindVideo
	}
	if _, ok := r.photo[ext]; ok {
		return KindPhoto
	}
	return KindUnknown
}

// IsDrone reports whether the group is flagged as a drone source.
func (r Rules) IsDrone(group string) bool {
	_, ok := r.drones[strings.ToLower(group)]
	return ok
}

// Classification is computed once per file and consumed everywhere else.
type Classification struct {
	Group string
	Kind  Kind
	Drone bool
}

// Classify derives the group from the first path segment below rawRoot and
// the kind from the extension. Files directly under rawRoot, or outside it,
// belong to RootGroup.
func Classify(path, rawRoot string, rules Rules) Classification {
	group := RootGroup
	if rel, err := filepath.Rel(rawRoot, path); err == nil && !strings.HasPrefix(rel, "..") {
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) > 1 && parts[0] != "" && parts[0] != "." {
			group = strings.ToLower(parts[0])
		}
	}
	return Classification{
		Group: group,
		Kind:  rules.KindOf(path),
		Drone: rules.IsDrone(group),
	}
}

func extensionSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if !strings.HasPrefix(value, ".") {
			value = "." + value
		}
		out[value] = struct{}{}
	}
	return out
}

func lowerSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, value := range values {
		if value = strings.ToLower(strings.TrimSpace(value)); value != "" {
			out[value] = struct{}{}
		}
	}
	return out
}
