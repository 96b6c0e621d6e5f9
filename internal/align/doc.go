// Package align produces the per-track aligned exports handed to the audio
// mix: each source trimmed or padded so that every export starts on the same
// downbeat, with its audio shifted by the same amount.
//
// A track's manifest offset_ms places it on the composite timeline. The
// export applies the opposite shift: a track that starts late on the timeline
// is padded with black frames and silence, one that starts early is trimmed.
package align
