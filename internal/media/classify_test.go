package media_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"footage/internal/config"
	"footage/internal/media"
)

func defaultRules() media.Rules {
	cfg := config.Default()
	return media.RulesFromConfig(&cfg)
}

func TestClassify(t *testing.T) {
	root := filepath.Join("/data", "rawRoot")
	rules := media.NewRules([]string{".mp4", "MOV"}, []string{".jpg"}, []string{"dji_mini4"})

	tests := []struct {
		path  string
		group string
		kind  media.Kind
		drone bool
	}{
		{filepath.Join(root, "dji_mini4", "DJI_0001.MP4"), "dji_mini4", media.KindVideo, true},
		{filepath.Join(root, "DJI_Mini4", "sub", "clip.mov"), "dji_mini4", media.KindVideo, true},
		{filepath.Join(root, "Cell_Blain", "IMG_1234.JPG"), "cell_blain", media.KindPhoto, false},
		{filepath.Join(root, "loose.mp4"), media.RootGroup, media.KindVideo, false},
		{filepath.Join(root, "canon", "notes.txt"), "canon", media.KindUnknown, false},
	}
	for _, tt := range tests {
		got := media.Classify(tt.path, root, rules)
		if got.Group != tt.group || got.Kind != tt.kind || got.Drone != tt.drone {
			t.Fatalf("Classify(%q) = %+v, want group=%s kind=%s drone=%v", tt.path, got, tt.group, tt.kind, tt.drone)
		}
	}
}

func TestDefaultRulesFlagDroneGroups(t *testing.T) {
	rules := defaultRules()
	for _, group := range []string{"drone", "DJI", "mini4", "mavic"} {
		if !rules.IsDrone(group) {
			t.Fatalf("expected %q to be a drone group", group)
		}
	}
	if rules.IsDrone("canon") {
		t.Fatal("canon should not be a drone group")
	}
	if rules.KindOf("clip.INSV") != media.KindVideo || rules.KindOf("shot.HEIC") != media.KindPhoto {
		t.Fatal("expected default extension lists to cover insv and heic")
	}
}

func TestNewFileStatsAndClassifies(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Canon")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "MVI_0001.MP4")
	if err := os.WriteFile(path, []byte("abcdef"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	mtime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	file, err := media.NewFile(path, root, defaultRules())
	if err != nil {
		t.Fatalf("NewFile returned error: %v", err)
	}
	if file.Size != 6 || !file.ModTime.Equal(mtime) || file.Ext != ".MP4" {
		t.Fatalf("unexpected file: %+v", file)
	}
	if file.Class.Group != "canon" || file.Class.Kind != media.KindVideo {
		t.Fatalf("unexpected classification: %+v", file.Class)
	}
}

func TestStabilizedNames(t *testing.T) {
	if !media.IsStabilized("DJI_0001_stabilized.MP4") || !media.IsStabilized("DJI_0001 Stabilized.mp4") {
		t.Fatal("expected stabilized markers to be detected")
	}
	if media.IsStabilized("DJI_0001.MP4") || media.IsStabilized("_stabilized.mp4") {
		t.Fatal("unexpected stabilized detection")
	}
	if got := media.OriginalName("DJI_0001_STABILIZED.MP4"); got != "DJI_0001.MP4" {
		t.Fatalf("OriginalName = %q", got)
	}
	if got := media.StabilizedName("DJI_0001.MP4"); got != "DJI_0001_stabilized.MP4" {
		t.Fatalf("StabilizedName = %q", got)
	}
	if got := media.StabilizedName("DJI_0001_stabilized.MP4"); got != "DJI_0001_stabilized.MP4" {
		t.Fatalf("StabilizedName should be idempotent, got %q", got)
	}
}

func TestClassifyColor(t *testing.T) {
	tests := []struct {
		name string
		info media.ColorInfo
		want media.ColorProfile
	}{
		{"empty", media.ColorInfo{}, media.ColorSDR},
		{"rec709", media.ColorInfo{Transfer: "bt709", Primaries: "bt709", PixFmt: "yuv420p"}, media.ColorSDR},
		{"pq", media.ColorInfo{Transfer: "smpte2084", Primaries: "bt2020"}, media.ColorHDR},
		{"hlg", media.ColorInfo{Transfer: "arib-std-b67"}, media.ColorHDR},
		{"log transfer", media.ColorInfo{Transfer: "log316"}, media.ColorLOG},
		{"wide gamut", media.ColorInfo{Transfer: "bt709", Space: "bt2020nc"}, media.ColorLOG},
		{"ten bit", media.ColorInfo{PixFmt: "yuv420p10le"}, media.ColorLOG},
		{"p010", media.ColorInfo{PixFmt: "P010"}, media.ColorLOG},
	}
	for _, tt := range tests {
		if got := media.ClassifyColor(tt.info); got != tt.want {
			t.Fatalf("%s: ClassifyColor = %s, want %s", tt.name, got, tt.want)
		}
	}
	if media.ColorSDR.CatalogSuffix() != "709" || media.ColorHDR.CatalogSuffix() != "HDR" {
		t.Fatal("unexpected catalog suffixes")
	}
}
