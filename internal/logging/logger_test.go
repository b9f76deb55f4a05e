package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"footage/internal/config"
	"footage/internal/logging"
	"footage/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg, false)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("debug message")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "footage.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "debug message") {
		t.Fatalf("expected debug message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:   "console",
		Level:    "info",
		FilePath: logPath,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "planner").Info("message without caller", logging.String("group", "dji"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
	if !strings.Contains(line, "planner: message without caller") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "group=dji") {
		t.Fatalf("expected attribute, got %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("expected no color codes, got %q", line)
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:   "json",
		Level:    "info",
		FilePath: logPath,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithStage(ctx, "transfer")
	logging.WithContext(ctx, logger).Info("moved")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("decode json record: %v (%q)", err, content)
	}
	if record["msg"] != "moved" || record["level"] != "info" {
		t.Fatalf("unexpected record: %v", record)
	}
	if record[logging.FieldRunID] != "run-1" || record[logging.FieldStage] != "transfer" {
		t.Fatalf("expected context fields, got %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{
		Format:   "json",
		FilePath: logPath,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "orphaned stabilized file", "stabilized_orphan", logging.Path("/raw/dji/a_stabilized.mp4"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{`"event_type":"stabilized_orphan"`, `"error_hint"`, `"impact"`, `"path":"/raw/dji/a_stabilized.mp4"`} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %s in %q", want, content)
		}
	}
}

func TestConsoleAndFileReceiveRecords(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "footage.log")
	var console bytes.Buffer
	logger, err := logging.New(logging.Options{
		Level:    "warn",
		Console:  &console,
		Color:    true,
		FilePath: logPath,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithRunID(context.Background(), "run-7")
	logger = logging.NewComponentLogger(logging.WithContext(ctx, logger), "transfer")
	logger.Info("below threshold")
	logger.Warn("size mismatch", logging.Path("/raw/cell/a.mp4"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for name, out := range map[string]string{"console": console.String(), "file": string(content)} {
		if strings.Contains(out, "below threshold") {
			t.Fatalf("%s: info record passed warn level: %q", name, out)
		}
		if !strings.Contains(out, "transfer: size mismatch path=/raw/cell/a.mp4") {
			t.Fatalf("%s: expected warning line, got %q", name, out)
		}
		if strings.Contains(out, "run-7") {
			t.Fatalf("%s: console format should omit run_id, got %q", name, out)
		}
	}
	if !strings.Contains(console.String(), "\x1b[") {
		t.Fatalf("expected colored console output, got %q", console.String())
	}
	if strings.Contains(string(content), "\x1b[") {
		t.Fatalf("expected no color codes in log file, got %q", content)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
