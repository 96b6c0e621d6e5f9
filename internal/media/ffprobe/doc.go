// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size)
//
// Inspect executes ffprobe and returns the parsed Result; Parse decodes a
// document captured elsewhere. Helper methods resolve the values the track
// reader needs: the first video stream, its frame rate (with the average
// rate fallback for implausible values), and its duration.
package ffprobe
