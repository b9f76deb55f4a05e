// Package planner turns scanned media files into placeholders.
//
// Each file is classified, its timestamp resolved and, for videos, its
// technical metadata inspected. The planner then writes a placeholder to
// staging/{kind}/{date}/ named {HH}h{MM}m{SS}s_{group}_{clean name}, or to
// staging/{kind}/invalid_date/ when no usable date exists.
//
// Re-planning is explicit. A source that already has a placeholder is left
// alone unless Options.Overwrite is set, and a placeholder that records a
// completed transfer is never replaced. Configuration changes therefore only
// reach already-planned files after their placeholders are deleted or the
// run uses --overwrite.
package planner
