// Package logs reads the persistent choirgrid log file for `choirgrid logs`.
//
// Last reads the trailing N lines with bounded memory and reports the byte
// offset reached, and Follow polls from that offset and emits appended lines
// until the context is cancelled.
package logs
