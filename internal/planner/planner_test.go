package planner_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"footage/internal/config"
	"footage/internal/logging"
	"footage/internal/media"
	"footage/internal/metadata"
	"footage/internal/placeholder"
	"footage/internal/planner"
	"footage/internal/scan"
	"footage/internal/testsupport"
	"footage/internal/timestamp"
)

func newPlanner(t *testing.T, cfg *config.Config, provider metadata.Provider, opts planner.Options) *planner.Planner {
	t.Helper()
	adjustments, errs := cfg.Adjustments()
	if len(errs) > 0 {
		t.Fatalf("adjustments: %v", errs)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatal(err)
	}
	resolver := timestamp.NewResolver(provider, timestamp.SettingsFromConfig(cfg, loc, adjustments), logging.NewNop())
	return planner.New(cfg, resolver, provider, logging.NewNop(), opts)
}

func scanFiles(t *testing.T, cfg *config.Config) scan.Result {
	t.Helper()
	result, err := scan.Walk(context.Background(), cfg.Paths.RawRoot, scan.OptionsFromConfig(cfg))
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		name string
		kind media.Kind
		want string
	}{
		{"VID_20240704_213015.mp4", media.KindVideo, "VID.mp4"},
		{"DJI_20241015183000_0001_D.MP4", media.KindVideo, "DJI_0001_D.MP4"},
		{"2024-07-04 21-30-15.mov", media.KindVideo, "video.mov"},
		{"DJI_0001_stabilized.MP4", media.KindVideo, "DJI_0001_stabilized.MP4"},
		{"20240704.jpg", media.KindPhoto, "photo.jpg"},
		{"IMG__0001--edit.jpg", media.KindPhoto, "IMG_0001_edit.jpg"},
	}
	for _, tt := range tests {
		if got := planner.CleanName(tt.name, tt.kind); got != tt.want {
			t.Fatalf("CleanName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestPlanWritesPlaceholders(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAdjustment("canon", "+00000000_020000"))
	raw := cfg.Paths.RawRoot
	provider := testsupport.NewFakeProvider()

	drone := filepath.Join(raw, "dji", "DJI_0001.MP4")
	testsupport.WriteMedia(t, drone, 64, time.Date(2024, 10, 16, 0, 0, 0, 0, time.UTC))
	created, _ := metadata.ParseCreationTime("2024-10-15T18:30:00Z")
	provider.Created[drone] = created
	provider.Tech[drone] = metadata.Technical{Codec: "hevc", ColorTransfer: "arib-std-b67", Width: 3840, Height: 2160}

	photo := filepath.Join(raw, "canon", "IMG_0001.JPG")
	testsupport.WriteMedia(t, photo, 32, time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC))
	provider.Captures[photo] = metadata.Capture{Value: time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC), Tag: "DateTimeOriginal", Tool: "exiftool"}

	before := testsupport.ListFiles(t, raw)
	p := newPlanner(t, cfg, provider, planner.Options{RunID: "run-1"})
	report, err := p.Plan(context.Background(), scanFiles(t, cfg).Files)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if report.Planned != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report %+v", report)
	}

	videoPH := filepath.Join(cfg.Paths.StagingRoot, "video", "2024-10-15", "18h30m00s_dji_DJI_0001.MP4.json")
	rec, err := placeholder.Read(videoPH)
	if err != nil {
		t.Fatalf("read video placeholder: %v", err)
	}
	if rec.Timestamps.Source != timestamp.SourceDeviceUTC || rec.Video == nil || rec.Video.ColorProfile != media.ColorHDR {
		t.Fatalf("unexpected video record %+v", rec)
	}
	if rec.Info.RunID != "run-1" || rec.Info.OriginalSize != 64 {
		t.Fatalf("unexpected info %+v", rec.Info)
	}

	photoPH := filepath.Join(cfg.Paths.StagingRoot, "photo", "2025-01-01", "01h00m00s_canon_IMG_0001.JPG.json")
	rec, err = placeholder.Read(photoPH)
	if err != nil {
		t.Fatalf("read photo placeholder: %v", err)
	}
	if rec.Timestamps.Adjustment != "+00000000_020000" || rec.Video != nil {
		t.Fatalf("unexpected photo record %+v", rec.Timestamps)
	}

	after := testsupport.ListFiles(t, raw)
	if strings.Join(before, ",") != strings.Join(after, ",") {
		t.Fatalf("raw tree changed: %v -> %v", before, after)
	}
}

func TestPlanStabilizedPreference(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	raw := cfg.Paths.RawRoot
	provider := testsupport.NewFakeProvider()

	original := filepath.Join(raw, "dji", "DJI_0001.MP4")
	stabilized := filepath.Join(raw, "dji", "DJI_0001_stabilized.MP4")
	testsupport.WriteMedia(t, original, 10, time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC))
	testsupport.WriteMedia(t, stabilized, 12, time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))
	created, _ := metadata.ParseCreationTime("2024-10-15T18:30:00Z")
	provider.Created[original] = created

	result := scanFiles(t, cfg)
	if len(result.Skipped) != 1 || result.Skipped[0].Path != original {
		t.Fatalf("expected original recorded as skipped, got %+v", result.Skipped)
	}

	report, err := newPlanner(t, cfg, provider, planner.Options{}).Plan(context.Background(), result.Files)
	if err != nil {
		t.Fatal(err)
	}
	if report.Planned != 1 {
		t.Fatalf("expected exactly one placeholder, got %+v", report)
	}
	rec, err := placeholder.Read(report.Items[0].Placeholder)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Info.OriginalPath != stabilized || !rec.File.Stabilized {
		t.Fatalf("expected stabilized source, got %+v", rec.Info)
	}
	if rec.File.TimestampSourcePath != original || rec.Timestamps.Date != "2024-10-15" {
		t.Fatalf("expected timestamp from original, got %+v", rec.Timestamps)
	}
	if filepath.Base(report.Items[0].Placeholder) != "18h30m00s_dji_DJI_0001_stabilized.MP4.json" {
		t.Fatalf("unexpected placeholder name %s", report.Items[0].Placeholder)
	}
}

func TestPlanInvalidBucketIgnoresAdjustment(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAdjustment("cell_blain", "+00000001_000000"))
	raw := cfg.Paths.RawRoot
	testsupport.WriteMedia(t, filepath.Join(raw, "Cell_Blain", "clip.mov"), 8, time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC))

	report, err := newPlanner(t, cfg, testsupport.NewFakeProvider(), planner.Options{}).Plan(context.Background(), scanFiles(t, cfg).Files)
	if err != nil {
		t.Fatal(err)
	}
	if report.Invalid != 1 {
		t.Fatalf("expected invalid placement, got %+v", report)
	}
	want := filepath.Join(cfg.Paths.StagingRoot, "video", planner.InvalidBucket, "cell_blain_clip.mov.json")
	rec, err := placeholder.Read(want)
	if err != nil {
		t.Fatalf("expected placeholder at %s: %v", want, err)
	}
	if rec.Timestamps.Valid || rec.Timestamps.Adjustment != "" || rec.Timestamps.Date != "" {
		t.Fatalf("expected unadjusted invalid record, got %+v", rec.Timestamps)
	}
}

func TestPlanCollisionSuffix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	raw := cfg.Paths.RawRoot
	provider := testsupport.NewFakeProvider()
	capture := metadata.Capture{Value: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}
	for _, dir := range []string{"a", "b"} {
		path := filepath.Join(raw, "cell", dir, "IMG_0001.JPG")
		testsupport.WriteMedia(t, path, 4, time.Now())
		provider.Captures[path] = capture
	}

	report, err := newPlanner(t, cfg, provider, planner.Options{}).Plan(context.Background(), scanFiles(t, cfg).Files)
	if err != nil {
		t.Fatal(err)
	}
	if report.Planned != 2 || report.Collisions != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	dir := filepath.Join(cfg.Paths.StagingRoot, "photo", "2024-07-04")
	for _, name := range []string{"10h00m00s_cell_IMG_0001.JPG.json", "10h00m00s_cell_IMG_0001_001.JPG.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestPlanIdempotentAndOverwrite(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	raw := cfg.Paths.RawRoot
	provider := testsupport.NewFakeProvider()
	path := filepath.Join(raw, "cell", "IMG_0001.JPG")
	testsupport.WriteMedia(t, path, 4, time.Now())
	provider.Captures[path] = metadata.Capture{Value: time.Date(2024, 7, 4, 10, 0, 0, 0, time.UTC)}

	files := scanFiles(t, cfg).Files
	if _, err := newPlanner(t, cfg, provider, planner.Options{}).Plan(context.Background(), files); err != nil {
		t.Fatal(err)
	}
	first := filepath.Join(cfg.Paths.StagingRoot, "photo", "2024-07-04", "10h00m00s_cell_IMG_0001.JPG.json")

	provider.Captures[path] = metadata.Capture{Value: time.Date(2024, 7, 5, 11, 0, 0, 0, time.UTC)}
	report, err := newPlanner(t, cfg, provider, planner.Options{}).Plan(context.Background(), files)
	if err != nil {
		t.Fatal(err)
	}
	if report.Skipped != 1 || report.Items[0].Outcome != planner.OutcomeExisting || report.Items[0].Placeholder != first {
		t.Fatalf("expected existing placeholder kept, got %+v", report.Items)
	}

	report, err = newPlanner(t, cfg, provider, planner.Options{Overwrite: true}).Plan(context.Background(), files)
	if err != nil {
		t.Fatal(err)
	}
	if report.Items[0].Outcome != planner.OutcomeReplanned {
		t.Fatalf("expected replanned, got %+v", report.Items[0])
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Fatalf("expected superseded placeholder removed, stat err=%v", err)
	}
	second := filepath.Join(cfg.Paths.StagingRoot, "photo", "2024-07-05", "11h00m00s_cell_IMG_0001.JPG.json")
	rec, err := placeholder.Read(second)
	if err != nil {
		t.Fatal(err)
	}

	rec.Transfer = &placeholder.TransferInfo{NewLocation: "/final/x", Mode: "copy"}
	if err := placeholder.Replace(second, rec); err != nil {
		t.Fatal(err)
	}
	report, err = newPlanner(t, cfg, provider, planner.Options{Overwrite: true}).Plan(context.Background(), files)
	if err != nil {
		t.Fatal(err)
	}
	if report.Items[0].Outcome != planner.OutcomeTransferred {
		t.Fatalf("transferred placeholder must not be replanned, got %+v", report.Items[0])
	}
}

func TestPlanDryRunWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	raw := cfg.Paths.RawRoot
	provider := testsupport.NewFakeProvider()
	for _, name := range []string{"VID_20240704_100000.mp4", "VID_20240704_100000 .mp4"} {
		testsupport.WriteMedia(t, filepath.Join(raw, "cell", name), 4, time.Now())
	}

	report, err := newPlanner(t, cfg, provider, planner.Options{DryRun: true}).Plan(context.Background(), scanFiles(t, cfg).Files)
	if err != nil {
		t.Fatal(err)
	}
	if report.Planned != 2 || !report.DryRun {
		t.Fatalf("unexpected report %+v", report)
	}
	if files := testsupport.ListFiles(t, cfg.Paths.StagingRoot); len(files) != 0 {
		t.Fatalf("dry run wrote %v", files)
	}
}

func TestPlanRecordsRawMetadataWhenEnabled(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		cfg := testsupport.NewConfig(t)
		cfg.Planner.RawMetadata = enabled
		provider := testsupport.NewFakeProvider()
		source := filepath.Join(cfg.Paths.RawRoot, "cell", "VID_20240704_100000.mp4")
		testsupport.WriteMedia(t, source, 4, time.Now())
		provider.Raws[source] = map[string]any{"exiftool": map[string]any{"QuickTime:Make": "Apple"}}

		report, err := newPlanner(t, cfg, provider, planner.Options{}).Plan(context.Background(), scanFiles(t, cfg).Files)
		if err != nil {
			t.Fatal(err)
		}
		if report.Planned != 1 {
			t.Fatalf("unexpected report %+v", report)
		}
		rec, err := placeholder.Read(report.Items[0].Placeholder)
		if err != nil {
			t.Fatal(err)
		}
		if !enabled {
			if rec.Raw != nil {
				t.Fatalf("raw_metadata written while disabled: %v", rec.Raw)
			}
			continue
		}
		exif, ok := rec.Raw["exiftool"].(map[string]any)
		if !ok || exif["QuickTime:Make"] != "Apple" {
			t.Fatalf("expected exiftool raw metadata, got %v", rec.Raw)
		}
	}
}
