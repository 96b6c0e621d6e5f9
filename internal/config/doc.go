// Package config loads, normalizes, and validates choirgrid configuration data.
//
// It supplies repository defaults (1080p canvas at 30 fps, 10px grid border,
// 0.9 fade decay, 4s/1s title and credit hold/fade), expands user paths
// (including tilde shortcuts), and reads TOML files. Every constant the render
// and align pipelines depend on is a named field here rather than a literal in
// pipeline code.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
