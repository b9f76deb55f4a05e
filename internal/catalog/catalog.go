package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"footage/internal/config"
	"footage/internal/logging"
	"footage/internal/media"
	"footage/internal/metadata"
	"footage/internal/placeholder"
)

// DroneSource is the catalog source for every drone group.
const DroneSource = "DRONE"

// Columns is the CSV header.
var Columns = []string{"filename", "relpath", "group_name", "clip_color", "color_space", "source"}

// Row is one catalog line.
type Row struct {
	Filename   string
	RelPath    string
	GroupName  string
	ClipColor  string
	ColorSpace string
	Source     string
	Profile    media.ColorProfile
}

// Catalog is the full export, sorted by RelPath.
type Catalog struct {
	Rows   []Row
	Colors map[string]string
}

// Palette holds the color assignment rules.
type Palette struct {
	Families      map[string][]string
	DynamicColors []string
	Fallback      string
}

// PaletteFromConfig reads the catalog section.
func PaletteFromConfig(cfg *config.Config) Palette {
	return Palette{
		Families:      cfg.Catalog.Families,
		DynamicColors: cfg.Catalog.DynamicColors,
		Fallback:      cfg.Catalog.FallbackColor,
	}
}

// Builder reads video placeholders and derives catalog rows.
type Builder struct {
	stagingRoot string
	finalRoot   string
	palette     Palette
	provider    metadata.Provider
	logger      *slog.Logger
	upper       cases.Caser
}

// NewBuilder constructs a builder. provider may be nil, in which case
// placeholders without video metadata are catalogued as SDR.
func NewBuilder(cfg *config.Config, provider metadata.Provider, logger *slog.Logger) *Builder {
	return &Builder{
		stagingRoot: cfg.Paths.StagingRoot,
		finalRoot:   cfg.Paths.FinalRoot,
		palette:     PaletteFromConfig(cfg),
		provider:    provider,
		logger:      logging.NewComponentLogger(logger, "catalog"),
		upper:       cases.Upper(language.Und),
	}
}

// SourceName maps a group to its catalog source tag.
func (b *Builder) SourceName(group string, drone bool) string {
	if drone {
		return DroneSource
	}
	return strings.ReplaceAll(b.upper.String(group), "_", "-")
}

// Build reads every video placeholder under the staging root.
func (b *Builder) Build(ctx context.Context) (Catalog, error) {
	logger := logging.WithContext(ctx, b.logger)
	var rows []Row
	err := placeholder.Walk(b.stagingRoot, func(path string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := placeholder.Read(path)
		if err != nil {
			logging.WarnWithContext(logger, "unreadable placeholder skipped", "catalog_placeholder",
				logging.Path(path), logging.Error(err),
				logging.String(logging.FieldImpact, "file missing from catalog"))
			return nil
		}
		if rec.File.Kind != media.KindVideo {
			return nil
		}
		row, err := b.row(ctx, logger, path, rec)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return Catalog{}, err
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].RelPath < rows[j].RelPath })
	sources := make(map[string]struct{})
	for _, row := range rows {
		sources[row.Source] = struct{}{}
	}
	colors := b.palette.Assign(sources)
	for i := range rows {
		rows[i].ClipColor = colors[rows[i].GroupName]
	}
	for _, name := range sortedKeys(colors) {
		logger.Info("catalog group", logging.String("group_name", name), logging.String("clip_color", colors[name]))
	}
	return Catalog{Rows: rows, Colors: colors}, nil
}

func (b *Builder) row(ctx context.Context, logger *slog.Logger, path string, rec placeholder.Record) (Row, error) {
	rel, err := filepath.Rel(b.stagingRoot, placeholder.MediaPath(path))
	if err != nil {
		return Row{}, err
	}
	mediaPath := filepath.Join(b.finalRoot, rel)
	if rec.Transferred() {
		mediaPath = rec.Transfer.NewLocation
		if finalRel, err := filepath.Rel(b.finalRoot, mediaPath); err == nil && !strings.HasPrefix(finalRel, "..") {
			rel = finalRel
		}
	}

	profile := rec.ColorProfile()
	if rec.Video == nil && b.provider != nil {
		target := rec.Info.OriginalPath
		if rec.Transferred() {
			target = mediaPath
		}
		if tech, err := b.provider.Technical(ctx, target); err == nil {
			profile = media.ClassifyColor(tech.ColorInfo())
		} else {
			logger.Debug("technical metadata unavailable; assuming SDR", logging.Path(target), logging.Error(err))
		}
	}

	source := b.SourceName(rec.File.Group, rec.File.Drone)
	return Row{
		Filename:   filepath.Base(mediaPath),
		RelPath:    filepath.ToSlash(rel),
		GroupName:  GroupName(source, profile),
		ColorSpace: ColorSpace(profile),
		Source:     source,
		Profile:    profile,
	}, nil
}

// GroupName is {SOURCE}_{LOG|HDR|709}.
func GroupName(source string, profile media.ColorProfile) string {
	return source + "_" + profile.CatalogSuffix()
}

// ColorSpace is the color_space column value.
func ColorSpace(profile media.ColorProfile) string {
	switch profile {
	case media.ColorLOG:
		return "Log"
	case media.ColorHDR:
		return "HDR"
	default:
		return "Rec709"
	}
}

// Assign gives every source two colors: the first for its 709 group and the
// second for its LOG and HDR groups. Sources with a configured family use
// it; the rest take the next two unused pool colors in sorted order.
func (p Palette) Assign(sources map[string]struct{}) map[string]string {
	names := sortedKeys(sources)
	used := make(map[string]bool)
	pairs := make(map[string][2]string, len(names))

	for _, source := range names {
		family, ok := p.Families[source]
		if !ok {
			continue
		}
		var pair [2]string
		for i := range pair {
			if i < len(family) && !used[family[i]] {
				pair[i] = family[i]
				used[family[i]] = true
			}
		}
		pairs[source] = pair
	}

	pool := make([]string, 0, len(p.DynamicColors))
	for _, color := range p.DynamicColors {
		if !used[color] {
			pool = append(pool, color)
		}
	}
	take := func() string {
		for len(pool) > 0 {
			color := pool[0]
			pool = pool[1:]
			if !used[color] {
				used[color] = true
				return color
			}
		}
		return p.Fallback
	}
	for _, source := range names {
		pair := pairs[source]
		for i := range pair {
			if pair[i] == "" {
				pair[i] = take()
			}
		}
		pairs[source] = pair
	}

	colors := make(map[string]string, len(names)*3)
	for _, source := range names {
		pair := pairs[source]
		colors[GroupName(source, media.ColorSDR)] = pair[0]
		colors[GroupName(source, media.ColorLOG)] = pair[1]
		colors[GroupName(source, media.ColorHDR)] = pair[1]
	}
	return colors
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Summary counts rows per group name.
func (c Catalog) Summary() map[string]int {
	out := make(map[string]int)
	for _, row := range c.Rows {
		out[row.GroupName]++
	}
	return out
}

// Groups lists the group names that have at least one row, sorted.
func (c Catalog) Groups() []string {
	return sortedKeys(c.Summary())
}

func (r Row) record() []string {
	return []string{r.Filename, r.RelPath, r.GroupName, r.ClipColor, r.ColorSpace, r.Source}
}

func (r Row) String() string {
	return fmt.Sprintf("%s (%s, %s)", r.RelPath, r.GroupName, r.ClipColor)
}
