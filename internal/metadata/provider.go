package metadata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"footage/internal/media"
)

// CreationTime is a video container creation_time tag.
type CreationTime struct {
	Raw   string
	Value time.Time
	// Zoned is true when the tag carried an explicit zone (Z or an offset);
	// Value is then the UTC instant. Otherwise Value holds naive wall-clock
	// components in UTC.
	Zoned bool
}

// Capture is an image capture-time tag. Value holds naive wall-clock
// components in UTC.
type Capture struct {
	Value time.Time
	Tag   string
	Tool  string
}

// RawSource is implemented by providers that can report unprocessed tool
// output for a placeholder's raw_metadata section.
type RawSource interface {
	Raw(ctx context.Context, path string, kind media.Kind) (map[string]any, error)
}

// Technical holds the stream properties recorded in placeholders and used by
// the catalog.
type Technical struct {
	Container       string             `json:"container,omitempty"`
	Codec           string             `json:"codec,omitempty"`
	CodecLongName   string             `json:"codec_long_name,omitempty"`
	Profile         string             `json:"profile,omitempty"`
	Width           int                `json:"width,omitempty"`
	Height          int                `json:"height,omitempty"`
	FrameRate       float64            `json:"frame_rate,omitempty"`
	DurationSeconds float64            `json:"duration_seconds,omitempty"`
	BitRate         int64              `json:"bit_rate,omitempty"`
	PixFmt          string             `json:"pix_fmt,omitempty"`
	ColorRange      string             `json:"color_range,omitempty"`
	ColorSpace      string             `json:"color_space,omitempty"`
	ColorTransfer   string             `json:"color_transfer,omitempty"`
	ColorPrimaries  string             `json:"color_primaries,omitempty"`
	ColorProfile    media.ColorProfile `json:"color_profile,omitempty"`
}

// ColorInfo returns the fields the color profile is derived from.
func (t Technical) ColorInfo() media.ColorInfo {
	return media.ColorInfo{
		Transfer:  t.ColorTransfer,
		Primaries: t.ColorPrimaries,
		Space:     t.ColorSpace,
		PixFmt:    t.PixFmt,
	}
}

// Resolution renders WIDTHxHEIGHT, or "" when unknown.
func (t Technical) Resolution() string {
	if t.Width <= 0 || t.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", t.Width, t.Height)
}

// Provider extracts metadata from a single file.
type Provider interface {
	VideoCreationTime(ctx context.Context, path string) (CreationTime, error)
	CaptureTime(ctx context.Context, path string) (Capture, error)
	Technical(ctx context.Context, path string) (Technical, error)
}

// ParseCreationTime interprets an ffprobe creation_time value. Values with a
// zone designator are parsed as explicit instants and converted to UTC; the
// machine's local zone never participates.
func ParseCreationTime(raw string) (CreationTime, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return CreationTime{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05Z07:00", "2006-01-02T15:04:05.999999Z0700"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return CreationTime{Raw: raw, Value: parsed.UTC(), Zoned: true}, true
		}
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999", "2006:01:02 15:04:05"} {
		if parsed, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return CreationTime{Raw: raw, Value: parsed, Zoned: false}, true
		}
	}
	return CreationTime{}, false
}
