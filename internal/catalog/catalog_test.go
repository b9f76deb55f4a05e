package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"footage/internal/catalog"
	"footage/internal/logging"
	"footage/internal/media"
	"footage/internal/metadata"
	"footage/internal/placeholder"
	"footage/internal/testsupport"
	"footage/internal/timestamp"
)

func TestPaletteAssign(t *testing.T) {
	palette := catalog.Palette{
		Families:      map[string][]string{"DRONE": {"Green", "Olive"}},
		DynamicColors: []string{"Purple", "Green", "Violet", "Pink"},
		Fallback:      "Sand",
	}
	sources := map[string]struct{}{"DRONE": {}, "CELL": {}, "ZOOM": {}}

	colors := palette.Assign(sources)
	want := map[string]string{
		"DRONE_709": "Green",
		"DRONE_LOG": "Olive",
		"DRONE_HDR": "Olive",
		"CELL_709":  "Purple",
		"CELL_LOG":  "Violet",
		"ZOOM_709":  "Pink",
		"ZOOM_LOG":  "Sand",
	}
	for group, color := range want {
		if colors[group] != color {
			t.Fatalf("%s = %q, want %q (all: %v)", group, colors[group], color, colors)
		}
	}

	again := palette.Assign(sources)
	for group, color := range colors {
		if again[group] != color {
			t.Fatalf("assignment not deterministic for %s", group)
		}
	}
}

func TestBuildAndWriteCSV(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	staging := cfg.Paths.StagingRoot
	provider := testsupport.NewFakeProvider()

	plant := func(group, name string, drone bool, kind media.Kind, tech *metadata.Technical) string {
		original := filepath.Join(cfg.Paths.RawRoot, group, name)
		file := media.File{Path: original, Name: name, Ext: filepath.Ext(name), Size: 1,
			Class: media.Classification{Group: group, Kind: kind, Drone: drone}}
		local := time.Date(2024, 10, 15, 9, 0, 0, 0, time.UTC)
		res := timestamp.Resolution{Local: local, Candidate: local, Valid: true, Source: timestamp.SourceImageMetadata}
		ph := filepath.Join(staging, kind.String(), "2024-10-15", "09h00m00s_"+group+"_"+name+placeholder.Extension)
		if err := placeholder.Create(ph, placeholder.NewRecord(file, res, tech, "", time.Now())); err != nil {
			t.Fatal(err)
		}
		return original
	}
	plant("dji", "a.mp4", true, media.KindVideo, &metadata.Technical{ColorTransfer: "arib-std-b67"})
	plant("cell_blain", "b.mp4", false, media.KindVideo, &metadata.Technical{ColorTransfer: "bt709"})
	inspected := plant("canon", "c.mp4", false, media.KindVideo, nil)
	provider.Tech[inspected] = metadata.Technical{ColorTransfer: "log", PixFmt: "yuv422p10le"}
	plant("cell_blain", "d.jpg", false, media.KindPhoto, nil)

	cat, err := catalog.NewBuilder(cfg, provider, logging.NewNop()).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(cat.Rows) != 3 {
		t.Fatalf("expected 3 video rows, got %+v", cat.Rows)
	}
	byGroup := map[string]catalog.Row{}
	for _, row := range cat.Rows {
		byGroup[row.GroupName] = row
	}
	drone, ok := byGroup["DRONE_HDR"]
	if !ok || drone.ClipColor != "Olive" || drone.ColorSpace != "HDR" {
		t.Fatalf("unexpected drone row %+v", drone)
	}
	blain, ok := byGroup["CELL-BLAIN_709"]
	if !ok || blain.ClipColor != "Orange" || blain.RelPath != "video/2024-10-15/09h00m00s_cell_blain_b.mp4" {
		t.Fatalf("unexpected cell row %+v", blain)
	}
	canon, ok := byGroup["CANON_LOG"]
	if !ok || canon.ClipColor != "Cyan" || canon.Source != "CANON" {
		t.Fatalf("expected inspected LOG row, got %+v", canon)
	}

	path := filepath.Join(t.TempDir(), "metadata.csv")
	if err := catalog.WriteCSV(path, cat); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 || lines[0] != "filename,relpath,group_name,clip_color,color_space,source" {
		t.Fatalf("unexpected csv:\n%s", data)
	}
}
