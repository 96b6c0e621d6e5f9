// Package project loads the per-project manifest (project.toml): the ordered
// track list with each track's timeline offset and rotation hint, the optional
// title and credits pages, and where results and the mixed audio live.
//
// Track order is load-bearing. A track that fails to open keeps its position
// so every other track keeps its offset and grid slot.
package project
