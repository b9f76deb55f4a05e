package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTimestamps(); err != nil {
		return err
	}
	c.normalizeMedia()
	c.normalizeMetadata()
	c.normalizeTransfer()
	c.normalizeCatalog()
	c.normalizeLogging()
	c.normalizeAdjustments()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.RawRoot, err = expandPath(c.Paths.RawRoot); err != nil {
		return fmt.Errorf("paths.raw_root: %w", err)
	}
	if c.Paths.StagingRoot, err = expandPath(c.Paths.StagingRoot); err != nil {
		return fmt.Errorf("paths.staging_root: %w", err)
	}
	if c.Paths.FinalRoot, err = expandPath(c.Paths.FinalRoot); err != nil {
		return fmt.Errorf("paths.final_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTimestamps() error {
	c.Timestamps.Timezone = strings.TrimSpace(c.Timestamps.Timezone)
	if c.Timestamps.Timezone == "" {
		c.Timestamps.Timezone = defaultTimezone
	}
	c.Timestamps.MtimeFallback = strings.ToLower(strings.TrimSpace(c.Timestamps.MtimeFallback))
	if c.Timestamps.MtimeFallback == "" {
		c.Timestamps.MtimeFallback = defaultMtimeFallback
	}
	if strings.TrimSpace(c.Timestamps.AdjustmentsFile) == "" {
		return nil
	}
	var err error
	if c.Timestamps.AdjustmentsFile, err = expandPath(c.Timestamps.AdjustmentsFile); err != nil {
		return fmt.Errorf("timestamps.adjustments_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeMedia() {
	c.Media.DroneGroups = normalizeList(c.Media.DroneGroups, strings.ToLower)
	c.Media.VideoExtensions = normalizeList(c.Media.VideoExtensions, normalizeExtension)
	c.Media.PhotoExtensions = normalizeList(c.Media.PhotoExtensions, normalizeExtension)
}

func (c *Config) normalizeMetadata() {
	c.Metadata.FFprobeBinary = strings.TrimSpace(c.Metadata.FFprobeBinary)
	if c.Metadata.FFprobeBinary == "" {
		c.Metadata.FFprobeBinary = defaultFFprobeBinary
	}
	c.Metadata.ExiftoolBinary = strings.TrimSpace(c.Metadata.ExiftoolBinary)
	if c.Metadata.ExiftoolBinary == "" {
		c.Metadata.ExiftoolBinary = defaultExiftoolBinary
	}
}

func (c *Config) normalizeTransfer() {
	c.Transfer.Mode = strings.ToLower(strings.TrimSpace(c.Transfer.Mode))
	if c.Transfer.Mode == "" {
		c.Transfer.Mode = defaultTransferMode
	}
}

func (c *Config) normalizeCatalog() {
	c.Catalog.Filename = strings.TrimSpace(c.Catalog.Filename)
	if c.Catalog.Filename == "" {
		c.Catalog.Filename = defaultCatalogFilename
	}
	if len(c.Catalog.Families) > 0 {
		families := make(map[string][]string, len(c.Catalog.Families))
		for source, colors := range c.Catalog.Families {
			families[strings.ToUpper(strings.TrimSpace(source))] = normalizeList(colors, strings.TrimSpace)
		}
		c.Catalog.Families = families
	}
	c.Catalog.DynamicColors = normalizeList(c.Catalog.DynamicColors, strings.TrimSpace)
	c.Catalog.FallbackColor = strings.TrimSpace(c.Catalog.FallbackColor)
	if c.Catalog.FallbackColor == "" {
		c.Catalog.FallbackColor = defaultCatalogFallback
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeAdjustments() {
	if len(c.TimeAdjustments) == 0 {
		c.TimeAdjustments = map[string]string{}
		return
	}
	out := make(map[string]string, len(c.TimeAdjustments))
	for group, delta := range c.TimeAdjustments {
		out[normalizeGroup(group)] = strings.TrimSpace(delta)
	}
	c.TimeAdjustments = out
}

func normalizeGroup(group string) string {
	return strings.ToLower(strings.TrimSpace(group))
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func normalizeList(values []string, fn func(string) string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = fn(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
