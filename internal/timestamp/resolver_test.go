package timestamp_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"footage/internal/config"
	"footage/internal/logging"
	"footage/internal/media"
	"footage/internal/metadata"
	"footage/internal/testsupport"
	"footage/internal/timedelta"
	"footage/internal/timestamp"
)

var mtime = time.Date(2024, 10, 20, 9, 15, 0, 0, time.UTC)

func videoFile(path, group string, drone bool) media.File {
	return media.File{
		Path:    path,
		Name:    filepath.Base(path),
		Ext:     filepath.Ext(path),
		ModTime: mtime,
		Class:   media.Classification{Group: group, Kind: media.KindVideo, Drone: drone},
	}
}

func newResolver(provider metadata.Provider, loc *time.Location, adjustments map[string]timedelta.Delta, fallback string) *timestamp.Resolver {
	return timestamp.NewResolver(provider, timestamp.Settings{
		Location:      loc,
		Adjustments:   adjustments,
		MinYear:       1990,
		MaxYear:       2099,
		MtimeFallback: fallback,
	}, logging.NewNop())
}

func TestDroneUTCConvertsPerTargetZone(t *testing.T) {
	provider := testsupport.NewFakeProvider()
	path := "/raw/dji/DJI_0001.MP4"
	created, _ := metadata.ParseCreationTime("2024-10-15T18:30:00.000000Z")
	provider.Created[path] = created
	file := videoFile(path, "dji", true)

	tests := []struct {
		name   string
		offset int
		want   string
	}{
		{"plus two", 2 * 3600, "2024-10-15T20:30:00"},
		{"minus four", -4 * 3600, "2024-10-15T14:30:00"},
		{"utc", 0, "2024-10-15T18:30:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := time.FixedZone(tt.name, tt.offset)
			res := newResolver(provider, loc, nil, config.MtimeFallbackDrone).Resolve(context.Background(), file)
			if !res.Valid || res.Source != timestamp.SourceDeviceUTC {
				t.Fatalf("expected device utc source, got %+v", res)
			}
			if got := res.Local.Format("2006-01-02T15:04:05"); got != tt.want {
				t.Fatalf("local wall clock = %s, want %s", got, tt.want)
			}
			if !res.UTC.Equal(time.Date(2024, 10, 15, 18, 30, 0, 0, time.UTC)) {
				t.Fatalf("unexpected UTC value %s", res.UTC)
			}
		})
	}
}

func TestNonDroneVideoIgnoresUTCMetadata(t *testing.T) {
	provider := testsupport.NewFakeProvider()
	path := "/raw/canon/MVI_0001.MP4"
	created, _ := metadata.ParseCreationTime("2024-10-15T18:30:00Z")
	provider.Created[path] = created
	provider.Captures[path] = metadata.Capture{Value: time.Date(2024, 10, 15, 14, 30, 0, 0, time.UTC), Tag: "QuickTime:CreationDate", Tool: "exiftool"}
	file := videoFile(path, "canon", false)

	loc := time.FixedZone("EDT", -4*3600)
	res := newResolver(provider, loc, nil, config.MtimeFallbackDrone).Resolve(context.Background(), file)
	if res.Source != timestamp.SourceImageMetadata {
		t.Fatalf("expected image metadata source, got %s", res.Source)
	}
	if got := res.Local.Format("15:04"); got != "14:30" {
		t.Fatalf("expected naive capture time kept as wall clock, got %s", got)
	}
	for _, call := range provider.Calls {
		if call == "creation:"+path {
			t.Fatal("non-drone video should not consult creation_time")
		}
	}
}

func TestDronePhotoUsesMtime(t *testing.T) {
	provider := testsupport.NewFakeProvider()
	path := "/raw/dji/DJI_0002.JPG"
	provider.Captures[path] = metadata.Capture{Value: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	file := media.File{Path: path, Name: "DJI_0002.JPG", ModTime: mtime, Class: media.Classification{Group: "dji", Kind: media.KindPhoto, Drone: true}}

	res := newResolver(provider, time.UTC, nil, config.MtimeFallbackNever).Resolve(context.Background(), file)
	if !res.Valid || res.Source != timestamp.SourceMtime {
		t.Fatalf("expected mtime override, got %+v", res)
	}
	if !res.Local.Equal(mtime) {
		t.Fatalf("expected mtime %s, got %s", mtime, res.Local)
	}
	if len(provider.Calls) != 0 {
		t.Fatalf("expected no metadata calls for drone photo, got %v", provider.Calls)
	}
}

func TestFilenamePatternFallback(t *testing.T) {
	provider := testsupport.NewFakeProvider()
	file := media.File{Path: "/raw/cell/VID_20240704_213015.mp4", Name: "VID_20240704_213015.mp4", ModTime: mtime,
		Class: media.Classification{Group: "cell", Kind: media.KindVideo}}

	res := newResolver(provider, time.UTC, nil, config.MtimeFallbackDrone).Resolve(context.Background(), file)
	if res.Source != timestamp.SourceFilename || res.Date() != "2024-07-04" {
		t.Fatalf("expected filename date, got %s %s", res.Source, res.Date())
	}
	if res.Trail[0].Source != timestamp.SourceImageMetadata || res.Trail[0].Outcome != timestamp.OutcomeFailed {
		t.Fatalf("expected failed image metadata attempt first, got %+v", res.Trail)
	}
}

func TestNoCandidateIsInvalidAndUnadjusted(t *testing.T) {
	provider := testsupport.NewFakeProvider()
	file := media.File{Path: "/raw/cell_blain/clip.mov", Name: "clip.mov", ModTime: mtime,
		Class: media.Classification{Group: "cell_blain", Kind: media.KindVideo}}
	adjustments := map[string]timedelta.Delta{"cell_blain": timedelta.MustParse("+00000000_020000")}

	res := newResolver(provider, time.UTC, adjustments, config.MtimeFallbackDrone).Resolve(context.Background(), file)
	if res.Valid {
		t.Fatalf("expected invalid resolution, got %+v", res)
	}
	if res.Adjustment != "" {
		t.Fatalf("expected no adjustment, got %q", res.Adjustment)
	}
	if res.Date() != "" || res.Err() == nil {
		t.Fatal("expected invalid date error")
	}
	if !res.Local.Equal(mtime) {
		t.Fatalf("expected unadjusted mtime for diagnostics, got %s", res.Local)
	}
}

func TestMtimeFallbackAlways(t *testing.T) {
	provider := testsupport.NewFakeProvider()
	file := media.File{Path: "/raw/canon/clip.mov", Name: "clip.mov", ModTime: mtime,
		Class: media.Classification{Group: "canon", Kind: media.KindVideo}}

	res := newResolver(provider, time.UTC, nil, config.MtimeFallbackAlways).Resolve(context.Background(), file)
	if !res.Valid || res.Source != timestamp.SourceMtime {
		t.Fatalf("expected trusted mtime, got %+v", res)
	}
}

func TestAdjustmentAppliedCaseInsensitively(t *testing.T) {
	provider := testsupport.NewFakeProvider()
	path := "/raw/Canon/IMG_0001.JPG"
	provider.Captures[path] = metadata.Capture{Value: time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)}
	file := media.File{Path: path, Name: "IMG_0001.JPG", ModTime: mtime,
		Class: media.Classification{Group: "Canon", Kind: media.KindPhoto}}
	adjustments := map[string]timedelta.Delta{"canon": timedelta.MustParse("+00000000_020000")}

	res := newResolver(provider, time.UTC, adjustments, config.MtimeFallbackDrone).Resolve(context.Background(), file)
	if res.Date() != "2025-01-01" || res.Local.Hour() != 1 {
		t.Fatalf("expected rollover to 2025-01-01 01:00, got %s", res.Local)
	}
	if res.Adjustment != "+00000000_020000" {
		t.Fatalf("unexpected adjustment %q", res.Adjustment)
	}
	if !res.Candidate.Equal(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected unadjusted candidate recorded, got %s", res.Candidate)
	}
}

func TestStabilizedResolvesFromOriginal(t *testing.T) {
	provider := testsupport.NewFakeProvider()
	original := "/raw/dji/DJI_0001.MP4"
	created, _ := metadata.ParseCreationTime("2024-10-15T18:30:00Z")
	provider.Created[original] = created
	file := media.File{
		Path:     "/raw/dji/DJI_0001_stabilized.MP4",
		Name:     "DJI_0001_stabilized.MP4",
		ModTime:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Original: original,
		Class:    media.Classification{Group: "dji", Kind: media.KindVideo, Drone: true},
	}

	res := newResolver(provider, time.UTC, nil, config.MtimeFallbackDrone).Resolve(context.Background(), file)
	if res.SourcePath != original || res.Date() != "2024-10-15" {
		t.Fatalf("expected resolution from original, got %+v", res)
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"DJI_20241015183000_0001_D.MP4", "2024-10-15 18:30:00", true},
		{"PXL_20240704_213015123.mp4", "2024-07-04 21:30:15", true},
		{"PXL_20241015_123045123.MP.jpg", "2024-10-15 12:30:45", true},
		{"VID_20240704_2130151234.mp4", "2024-07-04 00:00:00", true},
		{"VID_20240704-213015.mp4", "2024-07-04 21:30:15", true},
		{"Screen Recording 2024-07-04 at 21.30.15.mov", "2024-07-04 00:00:00", true},
		{"2024-07-04_21-30-15.mov", "2024-07-04 21:30:15", true},
		{"IMG_20241399.jpg", "", false},
		{"DJI_0001.MP4", "", false},
	}
	for _, tt := range tests {
		got, _, ok := timestamp.ParseFilename(tt.name)
		if ok != tt.ok {
			t.Fatalf("ParseFilename(%q) ok=%v, want %v", tt.name, ok, tt.ok)
		}
		if ok && got.Format(time.DateTime) != tt.want {
			t.Fatalf("ParseFilename(%q) = %s, want %s", tt.name, got.Format(time.DateTime), tt.want)
		}
	}
}
