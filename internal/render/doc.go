// Package render drives the composite pipeline: load the overlay pages, open
// every track in manifest order, size the timeline, plan the grid, and stream
// one canvas per tick into the encoder.
package render
