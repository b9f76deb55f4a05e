package exiftool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	goexiftool "github.com/barasher/go-exiftool"
)

type slowProcess struct {
	release    chan struct{}
	extracting atomic.Bool
	closedMid  atomic.Bool
	closed     chan struct{}
}

func (p *slowProcess) ExtractMetadata(files ...string) []goexiftool.FileMetadata {
	p.extracting.Store(true)
	<-p.release
	p.extracting.Store(false)
	return []goexiftool.FileMetadata{{File: files[0], Fields: map[string]any{}}}
}

func (p *slowProcess) Close() error {
	if p.extracting.Load() {
		p.closedMid.Store(true)
	}
	close(p.closed)
	return nil
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 10, 15, 18, 30, 5, 0, time.UTC)
	for _, value := range []string{
		"2024:10:15 18:30:05",
		"2024:10:15 18:30:05.123",
		"2024:10:15 18:30:05+02:00",
		"2024-10-15T18:30:05Z",
		" 2024-10-15 18:30:05 ",
	} {
		got, ok := ParseTimestamp(value)
		if !ok || !got.Equal(want) {
			t.Fatalf("ParseTimestamp(%q) = %s %v, want %s", value, got, ok, want)
		}
	}
	for _, value := range []string{"", "0000:00:00 00:00:00", "2024:10:15", "not a date at all!!"} {
		if _, ok := ParseTimestamp(value); ok {
			t.Fatalf("expected %q to be rejected", value)
		}
	}
}

func TestCaptureFromFieldsPriority(t *testing.T) {
	fields := map[string]any{
		"QuickTime:CreationDate":     "2024:10:15 10:00:00-04:00",
		"EXIF:DateTimeOriginal":      "2024:10:15 09:00:00",
		"QuickTime:DateTimeOriginal": "",
		"File:FileModifyDate":        "2024:10:20 12:00:00",
	}
	got, tag, err := captureFromFields(fields)
	if err != nil {
		t.Fatalf("captureFromFields returned error: %v", err)
	}
	if tag != "EXIF:DateTimeOriginal" || got.Hour() != 9 {
		t.Fatalf("expected EXIF:DateTimeOriginal at 09:00, got %s %s", tag, got)
	}

	delete(fields, "EXIF:DateTimeOriginal")
	got, tag, err = captureFromFields(fields)
	if err != nil || tag != "QuickTime:CreationDate" || got.Hour() != 10 {
		t.Fatalf("expected QuickTime:CreationDate fallback, got %s %s %v", tag, got, err)
	}

	_, _, err = captureFromFields(map[string]any{"File:FileModifyDate": "2024:10:20 12:00:00"})
	if !errors.Is(err, ErrNoCaptureTime) {
		t.Fatalf("expected ErrNoCaptureTime, got %v", err)
	}
}

func TestCaptureFromFieldsPrefersGroupsInFixedOrder(t *testing.T) {
	fields := map[string]any{
		"MakerNotes:DateTimeOriginal": "2024:10:13 07:00:00",
		"XMP:DateTimeOriginal":        "2024:10:14 08:00:00",
		"EXIF:DateTimeOriginal":       "2024:10:15 09:00:00",
		"Composite:DateTimeOriginal":  "2024:10:12 06:00:00",
	}
	for i := 0; i < 50; i++ {
		_, tag, err := captureFromFields(fields)
		if err != nil || tag != "EXIF:DateTimeOriginal" {
			t.Fatalf("iteration %d: expected EXIF:DateTimeOriginal, got %q %v", i, tag, err)
		}
	}

	delete(fields, "EXIF:DateTimeOriginal")
	if _, tag, _ := captureFromFields(fields); tag != "XMP:DateTimeOriginal" {
		t.Fatalf("expected XMP:DateTimeOriginal, got %q", tag)
	}

	fields["XMP:DateTimeOriginal"] = "garbage"
	for i := 0; i < 50; i++ {
		_, tag, _ := captureFromFields(fields)
		if tag != "Composite:DateTimeOriginal" {
			t.Fatalf("iteration %d: expected sorted fallback Composite:DateTimeOriginal, got %q", i, tag)
		}
	}
}

func TestNativeCaptureTimeRejectsNonEXIF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.jpg")
	if err := os.WriteFile(path, []byte("not a jpeg"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := NativeCaptureTime(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFieldsTimeoutClosesAfterExtractionReturns(t *testing.T) {
	proc := &slowProcess{release: make(chan struct{}), closed: make(chan struct{})}
	client := &Client{et: proc}

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	if _, err := client.Fields(ctx, "slow.jpg"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if _, err := client.Fields(t.Context(), "next.jpg"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after timeout, got %v", err)
	}

	select {
	case <-proc.closed:
		t.Fatal("process closed while extraction was still running")
	case <-time.After(20 * time.Millisecond):
	}
	close(proc.release)
	select {
	case <-proc.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("process was not closed after extraction returned")
	}
	if proc.closedMid.Load() {
		t.Fatal("Close ran during ExtractMetadata")
	}
}

func TestNilClientIsClosed(t *testing.T) {
	var c *Client
	if _, err := c.Fields(t.Context(), "x.jpg"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close on nil client: %v", err)
	}
}
