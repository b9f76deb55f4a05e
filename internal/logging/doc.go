// Package logging assembles structured slog loggers and formatting helpers used
// across footage commands.
//
// It owns the console and JSON handlers, fans records out to stderr and the
// log file, and exposes context-aware helpers so plan and transfer code can
// tag log lines with run IDs, stages and source paths.
package logging
