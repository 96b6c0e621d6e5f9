// Package merge attaches the mixed choir audio to the silent composite.
package merge
