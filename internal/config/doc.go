// Package config loads, normalizes, and validates footage configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and merges the per-group time adjustment map
// from the optional JSON adjustments file. The Config type centralizes every
// knob the planner, transfer executor, catalog builder and CLI need.
//
// A loaded Config is treated as read-only for the rest of a run; CLI flags
// are applied before Validate so the validated value is the one every
// component sees.
package config
