// Package compositor drives the per-tick render loop: it pulls one frame per
// active track at the track's local time, zoom-crops it into the track's grid
// cell, fades cells whose track has ended, blends the title and credits pages
// in and out, and pushes the canvas to a Sink.
package compositor
