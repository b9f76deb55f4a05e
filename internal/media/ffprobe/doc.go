// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: stream properties including codec, pixel format, and color fields
//   - Format: container-level metadata (duration, size, bitrate, tags)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result; callers bound it
//     with a context deadline
//
// Helper methods on Result expose the creation_time tag, the primary video
// stream, frame rate, duration, and bitrate.
package ffprobe
