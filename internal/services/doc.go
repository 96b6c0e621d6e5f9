// Package services defines shared utilities consumed by the render, align, and
// merge pipelines.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and track names for
//     logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent run history kinds and CLI exit codes.
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay uniform.
package services
