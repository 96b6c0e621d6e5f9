// Package ffmpeg drives the ffmpeg binary for choirgrid: raw rgb24 decode
// pipes (Reader), raw rgb24 encode pipes (Writer), and one-shot invocations
// for audio trimming and muxing through an injectable CommandRunner.
//
// Argument construction lives in pure functions so command lines can be
// asserted in tests without spawning processes.
package ffmpeg
