// Package frame holds the packed RGB pixel buffer passed between the track
// readers, the compositor, and the encoders, along with the handful of pixel
// operations the pipelines need: rotation, resampling, cropping, pasting,
// exponential darkening, and alpha blending.
//
// Every transform returns a new Frame. Paste is the only operation that
// writes into an existing buffer, and it always copies.
package frame
