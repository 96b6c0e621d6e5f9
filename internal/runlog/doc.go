// Package runlog keeps a SQLite history of render, align, and merge runs and
// the artifacts each produced. The database lives in the configured log
// directory (runs.db) and is shared across projects; rows carry the project
// directory they belong to.
package runlog
