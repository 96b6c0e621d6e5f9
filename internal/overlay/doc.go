// Package overlay loads the optional title and credits pages that the
// compositor crossfades over the grid.
package overlay
