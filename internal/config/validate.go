package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTimestamps(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validatePlanner(); err != nil {
		return err
	}
	if err := c.validateTransfer(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	roots := []struct {
		key   string
		value string
	}{
		{"paths.raw_root", c.Paths.RawRoot},
		{"paths.staging_root", c.Paths.StagingRoot},
		{"paths.final_root", c.Paths.FinalRoot},
	}
	for _, root := range roots {
		if root.value == "" {
			return fmt.Errorf("%s must be set", root.key)
		}
	}
	if c.Paths.RawRoot == c.Paths.StagingRoot || c.Paths.RawRoot == c.Paths.FinalRoot || c.Paths.StagingRoot == c.Paths.FinalRoot {
		return errors.New("paths.raw_root, paths.staging_root and paths.final_root must be distinct")
	}
	if within(c.Paths.StagingRoot, c.Paths.RawRoot) {
		return errors.New("paths.staging_root must not be inside paths.raw_root")
	}
	if within(c.Paths.FinalRoot, c.Paths.RawRoot) {
		return errors.New("paths.final_root must not be inside paths.raw_root")
	}
	return nil
}

func (c *Config) validateTimestamps() error {
	if _, err := time.LoadLocation(c.Timestamps.Timezone); err != nil {
		return fmt.Errorf("timestamps.timezone %q: %w", c.Timestamps.Timezone, err)
	}
	if c.Timestamps.MinYear <= 0 || c.Timestamps.MaxYear < c.Timestamps.MinYear {
		return errors.New("timestamps.min_year must be positive and not greater than timestamps.max_year")
	}
	switch c.Timestamps.MtimeFallback {
	case MtimeFallbackAlways, MtimeFallbackDrone, MtimeFallbackNever:
	default:
		return fmt.Errorf("timestamps.mtime_fallback must be one of always, drone, never (got %q)", c.Timestamps.MtimeFallback)
	}
	if c.Timestamps.DroneLocalToleranceSeconds < 0 {
		return errors.New("timestamps.drone_local_tolerance_seconds must be non-negative")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if len(c.Media.VideoExtensions) == 0 && len(c.Media.PhotoExtensions) == 0 {
		return errors.New("media.video_extensions or media.photo_extensions must be set")
	}
	videos := make(map[string]struct{}, len(c.Media.VideoExtensions))
	for _, ext := range c.Media.VideoExtensions {
		videos[ext] = struct{}{}
	}
	for _, ext := range c.Media.PhotoExtensions {
		if _, ok := videos[ext]; ok {
			return fmt.Errorf("media: extension %q listed as both video and photo", ext)
		}
	}
	if !c.Media.IncludeVideos && !c.Media.IncludePhotos {
		return errors.New("media: at least one of include_videos or include_photos must be true")
	}
	return nil
}

func (c *Config) validateMetadata() error {
	if c.Metadata.ToolTimeoutSeconds <= 0 {
		return errors.New("metadata.tool_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePlanner() error {
	if c.Planner.Workers <= 0 {
		return errors.New("planner.workers must be positive")
	}
	return nil
}

func (c *Config) validateTransfer() error {
	switch c.Transfer.Mode {
	case TransferModeCopy, TransferModeMove:
	default:
		return fmt.Errorf("transfer.mode must be copy or move (got %q)", c.Transfer.Mode)
	}
	if c.Transfer.MinFreeBytes < 0 {
		return errors.New("transfer.min_free_bytes must be non-negative")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	for source, colors := range c.Catalog.Families {
		if len(colors) == 0 {
			return fmt.Errorf("catalog.families.%s must list at least one color", source)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}

func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
