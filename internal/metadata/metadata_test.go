package metadata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"footage/internal/config"
	"footage/internal/logging"
	"footage/internal/media"
	"footage/internal/media/ffprobe"
	"footage/internal/services"
)

func TestParseCreationTime(t *testing.T) {
	tests := []struct {
		raw   string
		want  time.Time
		zoned bool
	}{
		{"2024-10-15T18:30:00.000000Z", time.Date(2024, 10, 15, 18, 30, 0, 0, time.UTC), true},
		{"2024-10-15T20:30:00+02:00", time.Date(2024, 10, 15, 18, 30, 0, 0, time.UTC), true},
		{"2024-10-15 18:30:00", time.Date(2024, 10, 15, 18, 30, 0, 0, time.UTC), false},
		{"2024-10-15T18:30:00", time.Date(2024, 10, 15, 18, 30, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		got, ok := ParseCreationTime(tt.raw)
		if !ok {
			t.Fatalf("ParseCreationTime(%q) failed", tt.raw)
		}
		if !got.Value.Equal(tt.want) || got.Zoned != tt.zoned {
			t.Fatalf("ParseCreationTime(%q) = %s zoned=%v, want %s zoned=%v", tt.raw, got.Value, got.Zoned, tt.want, tt.zoned)
		}
		if got.Value.Location() != time.UTC {
			t.Fatalf("expected UTC location, got %s", got.Value.Location())
		}
	}
	if _, ok := ParseCreationTime("yesterday"); ok {
		t.Fatal("expected garbage to be rejected")
	}
}

func TestTechnicalFromFFprobe(t *testing.T) {
	result := ffprobe.Result{
		Streams: []ffprobe.Stream{
			{CodecType: "audio", CodecName: "aac"},
			{CodecType: "video", CodecName: "hevc", Width: 3840, Height: 2160, PixFmt: "yuv420p10le", ColorTransfer: "bt709", RFrameRate: "60/1"},
		},
		Format: ffprobe.Format{FormatName: "mov,mp4", Duration: "12.5", BitRate: "100000"},
	}
	tech := TechnicalFromFFprobe(result)
	if tech.Codec != "hevc" || tech.Resolution() != "3840x2160" || tech.FrameRate != 60 {
		t.Fatalf("unexpected technical metadata: %+v", tech)
	}
	if tech.ColorProfile != media.ColorLOG {
		t.Fatalf("expected 10-bit footage tagged LOG, got %s", tech.ColorProfile)
	}
	if tech.DurationSeconds != 12.5 || tech.BitRate != 100000 {
		t.Fatalf("unexpected format fields: %+v", tech)
	}
}

func newTestProvider(t *testing.T) *ToolProvider {
	t.Helper()
	cfg := config.Default()
	cfg.Metadata.ExiftoolBinary = filepath.Join(t.TempDir(), "missing-exiftool")
	cfg.Metadata.ToolTimeoutSeconds = 1
	return NewToolProvider(&cfg, logging.NewNop())
}

func TestVideoCreationTimeUsesInspectCache(t *testing.T) {
	p := newTestProvider(t)
	calls := 0
	p.inspect = func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		calls++
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{CodecType: "video", CodecName: "h264"}},
			Format:  ffprobe.Format{Tags: map[string]string{"creation_time": "2024-10-15T18:30:00.000000Z"}},
		}, nil
	}

	created, err := p.VideoCreationTime(context.Background(), "/raw/dji/DJI_0001.MP4")
	if err != nil {
		t.Fatalf("VideoCreationTime returned error: %v", err)
	}
	if !created.Zoned || created.Value.Hour() != 18 {
		t.Fatalf("unexpected creation time: %+v", created)
	}
	if _, err := p.Technical(context.Background(), "/raw/dji/DJI_0001.MP4"); err != nil {
		t.Fatalf("Technical returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one ffprobe call, got %d", calls)
	}
}

func TestVideoCreationTimeFailuresAreExtractionErrors(t *testing.T) {
	p := newTestProvider(t)
	p.inspect = func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		return ffprobe.Result{}, errors.New("exit status 1")
	}
	_, err := p.VideoCreationTime(context.Background(), "/raw/a.mp4")
	if !errors.Is(err, services.ErrMetadataExtraction) {
		t.Fatalf("expected ErrMetadataExtraction, got %v", err)
	}

	p.inspect = func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		return ffprobe.Result{}, nil
	}
	_, err = p.VideoCreationTime(context.Background(), "/raw/b.mp4")
	if !errors.Is(err, services.ErrMetadataExtraction) {
		t.Fatalf("expected ErrMetadataExtraction for missing tag, got %v", err)
	}
}

func TestInspectHonoursTimeout(t *testing.T) {
	p := newTestProvider(t)
	p.timeout = 10 * time.Millisecond
	p.inspect = func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		<-ctx.Done()
		return ffprobe.Result{}, ctx.Err()
	}
	_, err := p.Technical(context.Background(), "/raw/slow.mp4")
	if !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, services.ErrMetadataExtraction) {
		t.Fatalf("expected deadline exceeded extraction error, got %v", err)
	}
}

func TestCaptureTimeWithoutToolsFails(t *testing.T) {
	p := newTestProvider(t)
	path := filepath.Join(t.TempDir(), "IMG_0001.JPG")
	if err := os.WriteFile(path, []byte("no exif here"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := p.CaptureTime(context.Background(), path)
	if !errors.Is(err, services.ErrMetadataExtraction) {
		t.Fatalf("expected ErrMetadataExtraction, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestRawReturnsFFprobeOutputWithoutExiftool(t *testing.T) {
	p := newTestProvider(t)
	p.inspect = func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		return ffprobe.Parse([]byte(`{"streams":[{"codec_type":"video","codec_name":"hevc"}],"format":{"format_name":"mov,mp4"}}`))
	}

	raw, err := p.Raw(context.Background(), "clip.mp4", media.KindVideo)
	if err != nil {
		t.Fatalf("Raw returned error: %v", err)
	}
	ff, ok := raw["ffprobe"].(map[string]any)
	if !ok {
		t.Fatalf("expected ffprobe section, got %v", raw)
	}
	if format, _ := ff["format"].(map[string]any); format["format_name"] != "mov,mp4" {
		t.Fatalf("unexpected ffprobe payload %v", ff)
	}
	if _, ok := raw["exiftool"]; ok {
		t.Fatalf("expected no exiftool section without exiftool, got %v", raw)
	}

	if _, err := p.Raw(context.Background(), "photo.jpg", media.KindPhoto); !errors.Is(err, services.ErrMetadataExtraction) {
		t.Fatalf("expected extraction error for photo without tools, got %v", err)
	}
}
