// Package staging owns run-level housekeeping of the staging tree: the
// exclusive lock held by plan and transfer, cleanup of temp files left by
// interrupted writes, and the per-date summary shown by "footage status".
package staging
