// Package logging assembles structured slog loggers and formatting helpers used
// across choirgrid.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run IDs, stages, and track names. The package also provides a
// no-op logger for tests and wiring code that cannot fail, and a progress
// sampler that keeps per-tick render progress from flooding non-interactive
// logs.
package logging
