package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"footage/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The target zone is UTC, no adjustments file is read, and the config is
// validated before it is returned.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RawRoot = filepath.Join(base, "raw")
	cfgVal.Paths.StagingRoot = filepath.Join(base, "staging")
	cfgVal.Paths.FinalRoot = filepath.Join(base, "final")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Timestamps.Timezone = "UTC"
	cfgVal.Timestamps.AdjustmentsFile = ""
	cfgVal.Planner.Workers = 2
	cfgVal.Transfer.MinFreeBytes = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	for _, dir := range []string{cfgVal.Paths.RawRoot, cfgVal.Paths.StagingRoot, cfgVal.Paths.FinalRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return builder.cfg
}

// WithAdjustment registers a time adjustment for a group.
func WithAdjustment(group, delta string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TimeAdjustments[group] = delta
	}
}

// WithDroneGroups replaces the drone group list.
func WithDroneGroups(groups ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Media.DroneGroups = groups
	}
}

// WithTimezone overrides the target zone.
func WithTimezone(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Timestamps.Timezone = name
	}
}

// WithMtimeFallback overrides the mtime trust policy.
func WithMtimeFallback(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Timestamps.MtimeFallback = policy
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffprobe and exiftool are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffprobe", "exiftool"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingRoot)
}
