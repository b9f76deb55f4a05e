// Package metadata defines the Provider capability consumed by the timestamp
// resolver, the planner, and the catalog builder, plus ToolProvider, the
// implementation backed by ffprobe and exiftool.
//
// Every Provider failure is tagged services.ErrMetadataExtraction; callers
// never distinguish "tool not installed" from "tool failed on this file".
// Each tool call is bounded by the configured timeout.
package metadata
