// Package timeline maps the single global output clock onto each track's
// local clock and sizes the composite from the tracks' adjusted lengths.
package timeline
