// Package grid plans the rectangular cell layout of the composite canvas from
// the number of active tracks and their dominant orientation.
package grid
