package timedelta_test

import (
	"errors"
	"testing"
	"time"

	"footage/internal/services"
	"footage/internal/timedelta"
)

func TestParseDecomposition(t *testing.T) {
	tests := []struct {
		text    string
		days    int
		seconds int
	}{
		{"+00000000_020000", 0, 7200},
		{"-00000000_040000", 0, -14400},
		{"+00000001_000000", 1, 0},
		{"+00010000_000000", 365, 0},
		{"+00000100_000000", 30, 0},
		{"+00020305_010203", 2*365 + 3*30 + 5, 3600 + 2*60 + 3},
		{"-00010101_235959", -(365 + 30 + 1), -(23*3600 + 59*60 + 59)},
		{"+00000000_000000", 0, 0},
	}
	for _, tt := range tests {
		d, err := timedelta.Parse(tt.text)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", tt.text, err)
		}
		if d.Days != tt.days || d.Seconds != tt.seconds {
			t.Fatalf("Parse(%q) = (%d, %d), want (%d, %d)", tt.text, d.Days, d.Seconds, tt.days, tt.seconds)
		}
		if d.String() != tt.text {
			t.Fatalf("String() = %q, want %q", d.String(), tt.text)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, text := range []string{
		"",
		"+",
		"+0000000_020000",
		"+00000000-020000",
		"+00000000_02000",
		"+0000000a_020000",
		"++00000000_020000",
		"+00000000_0200000",
		" +00000000_020000",
		"+00000000_-20000",
		"00000001_000000",
		"000000001_000000",
	} {
		_, err := timedelta.Parse(text)
		if err == nil {
			t.Fatalf("expected error for %q", text)
		}
		if !errors.Is(err, services.ErrConfigParse) {
			t.Fatalf("expected ErrConfigParse for %q, got %v", text, err)
		}
	}
}

func TestApplyRollsOver(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		delta string
		want  time.Time
	}{
		{
			name:  "hour into next day",
			start: time.Date(2024, 10, 15, 23, 0, 0, 0, time.UTC),
			delta: "+00000000_020000",
			want:  time.Date(2024, 10, 16, 1, 0, 0, 0, time.UTC),
		},
		{
			name:  "second into next year",
			start: time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
			delta: "+00000000_000001",
			want:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "negative across month",
			start: time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC),
			delta: "-00000000_020000",
			want:  time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC),
		},
		{
			name:  "month is thirty days",
			start: time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC),
			delta: "+00000100_000000",
			want:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name:  "year is 365 days across leap day",
			start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			delta: "+00010000_000000",
			want:  time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timedelta.MustParse(tt.delta).Apply(tt.start)
			if !got.Equal(tt.want) {
				t.Fatalf("Apply(%s, %s) = %s, want %s", tt.start, tt.delta, got, tt.want)
			}
		})
	}
}

func TestApplyKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC-4", -4*3600)
	start := time.Date(2024, 10, 15, 22, 30, 0, 0, loc)
	got := timedelta.MustParse("+00000000_020000").Apply(start)
	if got.Location() != loc {
		t.Fatalf("expected location preserved, got %s", got.Location())
	}
	if got.Day() != 16 || got.Hour() != 0 || got.Minute() != 30 {
		t.Fatalf("unexpected wall clock %s", got)
	}
}

func TestFormatCanonical(t *testing.T) {
	if got := timedelta.Format(395, 3723); got != "+00010100_010203" {
		t.Fatalf("Format = %q", got)
	}
	if got := timedelta.Format(0, -7200); got != "-00000000_020000" {
		t.Fatalf("Format = %q", got)
	}
	var zero timedelta.Delta
	if !zero.IsZero() || zero.String() != "+00000000_000000" {
		t.Fatalf("unexpected zero delta rendering %q", zero.String())
	}
}
