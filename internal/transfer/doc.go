// Package transfer executes the second phase: it walks the placeholders in
// the staging tree and copies or moves each referenced source file to the
// mirrored path under the final root.
//
// A copy is written to a hidden temp file, re-read and compared by SHA-256,
// then renamed into place. A move is a rename, or a verified copy followed by
// removal when the final root is on another filesystem. Only after the
// destination is complete is the placeholder annotated with transfer_info,
// so an interrupted run can be resumed: an identical file already at the
// destination is adopted instead of copied again.
//
// Verify-only runs perform the existence and size checks and write nothing.
package transfer
