// Package preflight validates the environment before a run: log and results
// directories, the ffmpeg and ffprobe binaries (and the encoders the pipeline
// calls), and the files a project manifest points at.
package preflight
