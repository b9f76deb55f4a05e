// Package services defines shared utilities consumed by the plan, transfer and
// catalog operations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and source paths for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that classify per-file
//     failures (metadata extraction, integrity, configuration) so reports and
//     the run ledger can count them consistently.
//
// Per-file failures are never fatal to a batch; callers use Outcome to decide
// how a failure is reported.
package services
