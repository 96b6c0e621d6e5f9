// Package track implements the per-file frame source used by both the grid
// render and the aligned export.
//
// A Track moves through three states: Unopened, Open, and Exhausted. Reads
// only move forward; the decoder cannot rewind. End of stream and decode
// failures are recorded as distinct causes (ErrEndOfStream, ErrDecode) and
// both leave the track Exhausted, after which every read returns nil.
package track
