// Package workspace manages a project's results directory: an advisory lock so
// two runs never write the same outputs, removal of stale aligned exports and
// per-track intermediates, and a listing of what is there.
package workspace
